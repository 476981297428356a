// internal/query/extractor/tables.go
package extractor

// fieldMapping pairs a student-facing term with the database field values it
// maps to. Match priority follows table order, not term length, so keep
// broader terms like "software" after their more specific variants only where
// the table already does; reordering changes downstream filter behavior.
type fieldMapping struct {
	term   string
	values []string
}

var fieldMappings = []fieldMapping{
	// IT & Computing
	{"it", []string{"Information Technology", "Information technologies", "Computing"}},
	{"information technology", []string{"Information Technology", "Information technologies"}},
	{"computer science", []string{"Computer Science", "Information Technology", "Computing"}},
	{"computing", []string{"Computing", "Information Technology"}},
	{"software engineering", []string{"Information Technology", "Engineering"}},
	{"software", []string{"Information Technology"}},
	{"ai", []string{"Artificial Intelligence", "Information Technology", "Computer Science"}},
	{"artificial intelligence", []string{"Artificial Intelligence", "Information Technology"}},
	{"data science", []string{"Information Technology", "Computer Science"}},
	{"cybersecurity", []string{"Information Technology", "Computer Science"}},
	{"cyber security", []string{"Information Technology", "Computer Science"}},

	// Business
	{"business", []string{"Business", "Business Studies", "Commerce"}},
	{"commerce", []string{"Commerce", "Business"}},
	{"accounting", []string{"Accounting", "Accounting Practice", "Business"}},
	{"finance", []string{"Applied Finance", "Business", "Commerce"}},
	{"management", []string{"Business", "Business Studies"}},
	{"mba", []string{"Business", "Business Studies"}},
	{"marketing", []string{"Business", "Commerce"}},

	// Engineering
	{"engineering", []string{"Engineering", "Architecture And Building"}},
	{"civil engineering", []string{"Engineering", "Architecture And Building"}},
	{"mechanical engineering", []string{"Engineering"}},
	{"electrical engineering", []string{"Engineering"}},

	// Medicine & Health
	{"medicine", []string{"Medicine", "Health Sciences", "Medical"}},
	{"medical", []string{"Medicine", "Medical Science", "Health"}},
	{"health", []string{"Health", "Health Sciences", "Medicine"}},
	{"nursing", []string{"Nursing", "Health"}},
	{"pharmacy", []string{"Pharmacy", "Health Sciences"}},

	// Science
	{"science", []string{"Science", "Sciences"}},
	{"biology", []string{"Science", "Biological Sciences"}},
	{"chemistry", []string{"Science", "Chemical Sciences"}},
	{"physics", []string{"Science", "Physical Sciences"}},
	{"mathematics", []string{"Science", "Mathematics"}},
	{"math", []string{"Science", "Mathematics"}},

	// Arts & Humanities
	{"arts", []string{"Arts", "Arts and Social Sciences", "Humanities"}},
	{"humanities", []string{"Arts", "Arts, Humanities And Social Science"}},
	{"social science", []string{"Arts", "Arts and Social Sciences", "Social Sciences"}},
	{"psychology", []string{"Psychology", "Arts and Social Sciences"}},

	// Law
	{"law", []string{"Law", "Legal Studies", "Laws"}},
	{"legal", []string{"Law", "Legal Studies"}},

	// Education
	{"education", []string{"Education", "Teaching"}},
	{"teaching", []string{"Education", "Teaching"}},
}

// cityStateMap maps lowercase location terms to city/state pairs. State-only
// entries leave City empty.
var cityStateMap = map[string]locationValue{
	// Major cities
	"sydney":    {City: "Sydney", State: "New South Wales"},
	"melbourne": {City: "Melbourne", State: "Victoria"},
	"brisbane":  {City: "Brisbane", State: "Queensland"},
	"perth":     {City: "Perth", State: "Western Australia"},
	"adelaide":  {City: "Adelaide", State: "South Australia"},
	"canberra":  {City: "Canberra", State: "Australian Capital Territory"},
	"hobart":    {City: "Hobart", State: "Tasmania"},
	"darwin":    {City: "Darwin", State: "Northern Territory"},

	// Other cities
	"gold coast": {City: "Gold Coast", State: "Queensland"},
	"newcastle":  {City: "Newcastle", State: "New South Wales"},
	"wollongong": {City: "Wollongong", State: "New South Wales"},
	"geelong":    {City: "Geelong", State: "Victoria"},
	"townsville": {City: "Townsville", State: "Queensland"},
	"cairns":     {City: "Cairns", State: "Queensland"},

	// State names
	"new south wales":    {State: "New South Wales"},
	"nsw":                {State: "New South Wales"},
	"victoria":           {State: "Victoria"},
	"vic":                {State: "Victoria"},
	"queensland":         {State: "Queensland"},
	"qld":                {State: "Queensland"},
	"western australia":  {State: "Western Australia"},
	"wa":                 {State: "Western Australia"},
	"south australia":    {State: "South Australia"},
	"sa":                 {State: "South Australia"},
	"tasmania":           {State: "Tasmania"},
	"tas":                {State: "Tasmania"},
	"northern territory": {State: "Northern Territory"},
	"nt":                 {State: "Northern Territory"},
	"act":                {State: "Australian Capital Territory"},
}

type locationValue struct {
	City  string
	State string
}

// providerAlias pairs a common shorthand with the canonical provider name.
type providerAlias struct {
	alias string
	name  string
}

var providerAliases = []providerAlias{
	{"unsw", "University of New South Wales"},
	{"usyd", "University of Sydney"},
	{"sydney uni", "University of Sydney"},
	{"uts", "University of Technology Sydney"},
	{"macquarie", "Macquarie University"},
	{"uq", "University of Queensland"},
	{"queensland uni", "University of Queensland"},
	{"monash", "Monash University"},
	{"unimelb", "University of Melbourne"},
	{"melbourne uni", "University of Melbourne"},
	{"rmit", "RMIT University"},
	{"deakin", "Deakin University"},
	{"griffith", "Griffith University"},
	{"qut", "Queensland University of Technology"},
	{"anu", "Australian National University"},
	{"uwa", "University of Western Australia"},
	{"western australia uni", "University of Western Australia"},
	{"adelaide uni", "University of Adelaide"},
	{"utas", "University of Tasmania"},
	{"cdu", "Charles Darwin University"},
	{"csu", "Charles Sturt University"},
	{"victoria uni", "Victoria University"},
}

// levelMapping pairs a study-level term with its canonical database value.
type levelMapping struct {
	term  string
	level string
}

var levelMappings = []levelMapping{
	{"bachelor", "Bachelor Degree"},
	{"bachelor's", "Bachelor Degree"},
	{"undergraduate", "Undergraduate"},
	{"undergrad", "Undergraduate"},
	{"bachelor degree", "Bachelor Degree"},
	{"master", "Master Degree"},
	{"master's", "Master Degree"},
	{"masters", "Master Degree"},
	{"postgraduate", "Postgraduate"},
	{"postgrad", "Postgraduate"},
	{"master degree", "Master Degree"},
	{"phd", "Doctorate Degree"},
	{"doctorate", "Doctorate Degree"},
	{"doctoral", "Doctorate Degree"},
	{"diploma", "Diploma"},
	{"certificate", "Certificate"},
	{"grad cert", "Graduate Certificate"},
	{"graduate certificate", "Graduate Certificate"},
	{"grad dip", "Graduate Diploma"},
	{"graduate diploma", "Graduate Diploma"},
}
