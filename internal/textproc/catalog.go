package textproc

// negations are tokens exempt from stopword removal because they invert
// predicate polarity. Dropping "not" changes meaning; dropping "the" does not.
var negations = []string{
	"not", "no", "nor", "never", "neither", "nobody", "nothing", "nowhere",
	"none", "cannot", "can't", "don't", "doesn't", "didn't", "won't",
	"wouldn't", "shouldn't", "couldn't", "isn't", "aren't", "wasn't",
	"weren't", "hasn't", "haven't", "hadn't",
}

// stopwords are common function words removed during compression.
var stopwords = []string{
	"a", "an", "the", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would", "shall",
	"should", "may", "might", "must", "can", "could", "am",
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves",
	"you", "your", "yours", "yourself", "yourselves",
	"he", "him", "his", "himself", "she", "her", "hers", "herself",
	"it", "its", "itself", "they", "them", "their", "theirs", "themselves",
	"what", "which", "who", "whom", "this", "that", "these", "those",
	"of", "in", "for", "on", "with", "at", "by", "from", "to", "into",
	"through", "during", "before", "after", "above", "below", "between",
	"and", "but", "or", "so", "if", "then", "because", "as", "until",
	"while", "about", "against", "each", "few", "more", "most", "other",
	"some", "such", "only", "own", "same", "than", "too", "very", "just",
	"also", "both", "how", "when", "where", "why", "all", "any", "here",
	"there", "up", "out", "over", "under", "again", "further", "once",
}

// fillerPhrases are verbose connective phrases removed wholesale before
// stopword filtering.
var fillerPhrases = []string{
	"it is important to note that",
	"it should be noted that",
	"it is worth mentioning that",
	"as a matter of fact",
	"in order to",
	"due to the fact that",
	"for the purpose of",
	"in the event that",
	"at the end of the day",
	"as previously mentioned",
	"it goes without saying",
	"needless to say",
	"in terms of",
	"with regard to",
	"with respect to",
	"on the other hand",
	"in addition to",
	"as well as",
	"in light of",
	"as a result of",
}

var (
	negationSet = toSet(negations)
	stopwordSet = toSet(stopwords)
)

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
