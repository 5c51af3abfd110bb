package keyword

// Built-in footprint word lists. These match the terminology sets used by
// the dashboard's stock DEI and bureaucracy views; additional footprints
// can be configured with custom lists.

// DEIWords is the default word list for the DEI footprint.
var DEIWords = []string{
	"diversity",
	"equity",
	"inclusion",
	"inclusive",
	"equality",
	"minority",
	"minorities",
	"underrepresented",
	"underserved",
	"disadvantaged",
	"gender equity",
	"marginalized",
	"multicultural",
	"race",
	"racial",
	"ethnic",
	"ethnicity",
	"discrimination",
	"harassment",
	"accessibility",
	"social justice",
	"environment",
	"sexual orientation",
	"gender identity",
}

// BureaucracyWords is the default word list for the bureaucracy footprint.
var BureaucracyWords = []string{
	"compliance",
	"procedure",
	"procedures",
	"process",
	"processes",
	"requirement",
	"requirements",
	"regulation",
	"regulations",
	"regulatory",
	"mandate",
	"mandates",
	"mandated",
	"approval",
	"approvals",
	"paperwork",
	"documentation",
	"report",
	"reporting",
	"deadline",
	"submit",
	"request",
	"certify",
	"filing",
	"authorization",
	"form",
}
