package dictmap

// DefaultStem names the generic wordlist used when no technology matches.
const DefaultStem = "general"

// defaultTable maps a normalized technology identifier to the OneListForAll
// wordlist stems fuzzed for it, in order. A stem resolves to
// <root>/<stem>_<mode>.txt.
var defaultTable = map[string][]string{
	"wordpress":     {"wordpress"},
	"drupal":        {"drupal", "php"},
	"joomla":        {"joomla", "php"},
	"magento":       {"magento", "php"},
	"prestashop":    {"prestashop", "php"},
	"laravel":       {"laravel", "php"},
	"symfony":       {"symfony", "php"},
	"php":           {"php"},
	"apache":        {"apache"},
	"nginx":         {"nginx"},
	"iis":           {"iis", "aspx"},
	"aspnet":        {"aspx"},
	"tomcat":        {"tomcat", "java", "jsp"},
	"jboss":         {"jboss", "java"},
	"weblogic":      {"weblogic", "java"},
	"websphere":     {"websphere", "java"},
	"spring":        {"spring", "java"},
	"java":          {"java", "jsp"},
	"coldfusion":    {"coldfusion"},
	"django":        {"django", "python"},
	"flask":         {"flask", "python"},
	"rails":         {"rails", "ruby"},
	"ruby":          {"ruby"},
	"nodejs":        {"nodejs"},
	"express":       {"nodejs"},
	"nextjs":        {"nextjs", "nodejs"},
	"graphql":       {"graphql"},
	"swagger":       {"swagger", "api"},
	"jenkins":       {"jenkins"},
	"jira":          {"jira"},
	"confluence":    {"confluence"},
	"sharepoint":    {"sharepoint", "aspx"},
	"git":           {"git"},
	"citrix":        {"citrix"},
	"sap":           {"sap"},
	"grafana":       {"grafana"},
	"kibana":        {"kibana"},
	"elasticsearch": {"elasticsearch"},
}

// aliases maps alternate identifiers onto table keys.
var aliases = map[string]string{
	"microsoft-iis":        "iis",
	"aspnet-mvc":           "aspnet",
	"microsoft-aspnet":     "aspnet",
	"apache-tomcat":        "tomcat",
	"apache-http-server":   "apache",
	"ruby-on-rails":        "rails",
	"node":                 "nodejs",
	"expressjs":            "express",
	"next":                 "nextjs",
	"adobe-coldfusion":     "coldfusion",
	"atlassian-jira":       "jira",
	"atlassian-confluence": "confluence",
	"oracle-weblogic":      "weblogic",
	"ibm-websphere":        "websphere",
	"spring-boot":          "spring",
	"wp":                   "wordpress",
}
