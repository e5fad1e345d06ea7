package category

import "bankrecon/internal/core"

// Category labels used by the default rule set.
const (
	Transfer      = "átvezetés"
	Cash          = "készpénz"
	BankCost      = "bankköltség"
	OnlineService = "online szolgáltatás"
	Cleverant     = "cleverant"
	Subcontractor = "alvállalkozó"
)

var (
	onlineServicePartners = []string{
		"Adobe Systems Software", "OPENAI  CHATGPT SUBSCR", "ATLASSIAN", "GOOGLE GSUITE MOON42.C",
		"AWS EMEA", "REMARKABLE", "2CO.COM!HP INC.", "ZAPIER.COM/CHARGE", "SLACK T0225UG4P9C",
		"SLACK TQK3B5K8A", "DEEPL  SUB 2654037 CUS",
	}
	bankCostPartners = []string{
		"Kp.felvét tranzakciós jutalék", "Könyvelési díj - deviza", "Könyvelési díj - hitel", "Kamat",
		"Könyvelési díj", "Rendelkezésre tartási jutalék", "Hitelkamat törlesztés",
	}
	subcontractorPartners = []string{
		"Proszenyák Norbert ev.", "Tóth Bence Dániel", "Hawat Consulting Bt.",
		"Identity Hungary Kft.", "Build Kft. Tóth Bence", "Robár Róbert",
	}
)

// DefaultRules returns the production rule set in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "transfer",
			When: []Predicate{
				{Field: Notice, Op: Contains, Values: []string{"Kártyafedezeti rendelkezés alapján"}},
				{Field: TypeName, Op: Contains, Values: []string{"azonnali ft átvezetés", "murex interfész könyvelései"}},
			},
			Category: Transfer,
			Include:  core.False,
			VAT:      core.False,
		},
		{
			Name:     "cash",
			When:     []Predicate{{Field: TypeName, Op: Contains, Values: []string{"készpénz felvétel - atm"}}},
			Category: Cash,
			Include:  core.False,
			VAT:      core.False,
		},
		{
			Name: "bank cost",
			When: []Predicate{
				{Field: TypeName, Op: Contains, Values: []string{
					"Bankkártyával kapcsolatos jutalék", "jutalék, díj", "átutalás jutalék - elektronikus",
				}},
				{Field: Partner, Op: OneOf, Values: bankCostPartners},
			},
			Category: BankCost,
			Include:  core.True,
			VAT:      core.False,
		},
		{
			Name:     "online service",
			When:     []Predicate{{Field: Partner, Op: OneOf, Values: onlineServicePartners}},
			Category: OnlineService,
		},
		{
			Name:     "cleverant",
			When:     []Predicate{{Field: Partner, Op: Contains, Values: []string{"cleverant"}}},
			Category: Cleverant,
		},
		{
			Name:     "subcontractor",
			When:     []Predicate{{Field: Partner, Op: OneOf, Values: subcontractorPartners}},
			Category: Subcontractor,
			Include:  core.True,
			VAT:      core.True,
		},
	}
}

// Default returns an engine over DefaultRules.
func Default() *Engine {
	return NewEngine(DefaultRules())
}
