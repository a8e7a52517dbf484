package heuristic

type kind uint8

const (
	kindPain kind = iota
	kindIntensity
	kindCategory
)

type term struct {
	phrase   string
	kind     kind
	category string
	stem     bool // matches any word continuing the phrase
}

// newTerm strips a trailing '*' stem marker
func newTerm(p string, k kind, category string) term {
	stem := len(p) > 1 && p[len(p)-1] == '*'
	if stem {
		p = p[:len(p)-1]
	}
	return term{phrase: p, kind: k, category: category, stem: stem}
}

// painPhrases signal an unmet need; at least one makes a signal a candidate
var painPhrases = []string{
	"i wish",
	"wish there was",
	"wish someone",
	"someone should",
	"somebody should",
	"someone needs to",
	"would pay",
	"would happily pay",
	"shut up and take my money",
	"why is there no",
	"why isn't there",
	"there's no way to",
	"there is no way to",
	"no good way to",
	"is there an app",
	"is there a tool",
	"looking for a tool",
	"looking for an app",
	"frustrat*",
	"annoying",
	"pain in the",
	"hate having to",
	"tired of",
	"sick of",
	"fed up",
	"waste of time",
	"takes forever",
	"can't find",
	"cannot find",
	"impossible to find",
	"nobody offers",
	"nobody does",
	"struggl*",
	"hard to find",
	"needs improvement",
	"terrible service",
	"long wait",
}

// intensityWords add weight to a candidate but never make one on their own
var intensityWords = []string{
	"always",
	"every time",
	"every day",
	"constantly",
	"again",
	"still",
	"desperate",
	"urgent",
	"nightmare",
	"worst",
	"ridiculous",
	"unacceptable",
	"hours",
	"so much",
	"really",
	"!!",
}

type categoryTable struct {
	name     string
	keywords []string
}

// categories are checked in order; ties go to the earlier table
var categories = []categoryTable{
	{"Technology", []string{"app", "software", "website", "online", "tool", "platform", "api", "automat*", "dashboard", "integration", "saas", "spreadsheet"}},
	{"Food & Beverage", []string{"restaurant", "food", "coffee", "cafe", "menu", "delivery", "lunch", "dinner", "bakery", "vegan", "gluten"}},
	{"Health & Wellness", []string{"doctor", "clinic", "health", "gym", "fitness", "therapy", "dentist", "pharmacy", "mental", "appointment"}},
	{"Home Services", []string{"plumber", "electrician", "repair", "cleaning", "landlord", "contractor", "handyman", "lawn", "moving", "pest"}},
	{"Transportation", []string{"parking", "traffic", "bus", "train", "commute", "bike", "uber", "taxi", "ride"}},
	{"Childcare & Education", []string{"daycare", "childcare", "school", "tutor", "kids", "class", "course", "teacher"}},
	{"Retail", []string{"store", "shop", "shopping", "checkout", "return", "inventory", "price", "product"}},
	{"Finance", []string{"bank", "invoice", "payment", "tax", "budget", "accounting", "insurance", "loan"}},
	{"Pets", []string{"dog", "cat", "pet", "vet", "groomer"}},
	{"Events & Entertainment", []string{"event", "concert", "ticket", "venue", "party", "wedding"}},
}

// lexicon flattens every table into the automaton term list
func lexicon() []term {
	var out []term
	for _, p := range painPhrases {
		out = append(out, newTerm(p, kindPain, ""))
	}
	for _, w := range intensityWords {
		out = append(out, newTerm(w, kindIntensity, ""))
	}
	for _, c := range categories {
		for _, k := range c.keywords {
			out = append(out, newTerm(k, kindCategory, c.name))
		}
	}
	return out
}
