package score

// brandEntry pairs a well-known brand's bare name with the domain its links
// are expected to stay within.
type brandEntry struct {
	name   string
	domain string
}

// brands is scanned in order so repeated evaluations of the same page report
// the same brand when several match.
var brands = []brandEntry{
	{"paypal", "paypal.com"},
	{"amazon", "amazon.com"},
	{"apple", "apple.com"},
	{"microsoft", "microsoft.com"},
	{"google", "google.com"},
	{"facebook", "facebook.com"},
}

// securityKeywords are the credential-harvesting nouns looked for in page
// text. A keyword alone is not enough; it has to appear together with one of
// the action verbs.
var securityKeywords = []string{
	"password",
	"account",
	"security",
	"secure",
	"bank",
	"wallet",
	"credential",
	"signin",
	"suspended",
	"urgent",
}

// actionVerbs are the verbs that turn brand or security language into a
// phishing signal.
var actionVerbs = []string{
	"login",
	"verify",
	"update",
	"unlock",
	"suspend",
}

// suspiciousTLDs are final hostname labels disproportionately used by
// throwaway phishing sites.
var suspiciousTLDs = map[string]struct{}{
	"zip":     {},
	"mov":     {},
	"country": {},
	"gq":      {},
	"tk":      {},
	"ml":      {},
	"cf":      {},
	"xyz":     {},
	"top":     {},
	"club":    {},
	"link":    {},
	"work":    {},
	"click":   {},
}
