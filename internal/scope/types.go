package scope

// Rules narrows which same-host URLs the crawler may follow.
type Rules struct {
	IncludePatterns []string `yaml:"include_patterns" json:"include_patterns"`
	ExcludePatterns []string `yaml:"exclude_patterns" json:"exclude_patterns"`
	// DefaultExcludes adds DefaultExcludePatterns to ExcludePatterns.
	DefaultExcludes bool `yaml:"default_excludes" json:"default_excludes"`
}

// DefaultExcludePatterns keeps state-changing links out of the crawl.
var DefaultExcludePatterns = []string{
	`(?i)[?&](logout|signout|exit)\b`,
	`(?i)/(logout|signout|log-out|sign-out)\b`,
	`(?i)/delete[-_]?account`,
	`(?i)/unsubscribe`,
	`(?i)/reset[-_]?password`,
	`(?i)\.(exe|dmg|msi|iso)$`,
}
