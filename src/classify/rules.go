package classify

import (
	"regexp"

	"opslens/src/contracts"
)

// Rule maps a message pattern to a category, severity and remediation hint.
type Rule struct {
	Name         string
	Pattern      *regexp.Regexp
	Category     contracts.Category
	Severity     contracts.Severity
	Keywords     []string
	SuggestedFix string
}

// Matches reports whether the rule applies to message.
func (r Rule) Matches(message string) bool {
	return r.Pattern.MatchString(message)
}

// rules is evaluated top to bottom and the first match wins.
// More specific patterns must come before broader ones.
var rules = []Rule{
	// Network
	{
		Name:         "network-connection",
		Pattern:      regexp.MustCompile(`(?i)connection (refused|timeout|reset|failed)|network (unreachable|timeout)|DNS resolution failed|ECONNREFUSED|socket hang up`),
		Category:     contracts.CategoryNetwork,
		Severity:     contracts.SeverityError,
		Keywords:     []string{"connection", "network", "timeout", "dns"},
		SuggestedFix: "Check network connectivity, firewall rules, and DNS configuration",
	},
	{
		Name:         "network-unreachable",
		Pattern:      regexp.MustCompile(`(?i)cannot reach|host unreachable|no route to host`),
		Category:     contracts.CategoryNetwork,
		Severity:     contracts.SeverityCritical,
		Keywords:     []string{"unreachable", "route"},
		SuggestedFix: "Verify network routes and host availability",
	},

	// Permissions
	{
		Name:         "permissions-denied",
		Pattern:      regexp.MustCompile(`(?i)permission denied|access denied|unauthorized|forbidden|EACCES|\b(401|403)\b`),
		Category:     contracts.CategoryPermissions,
		Severity:     contracts.SeverityError,
		Keywords:     []string{"permission", "access", "unauthorized", "forbidden"},
		SuggestedFix: "Check user permissions, file ownership, and access policies",
	},
	{
		Name:         "permissions-auth",
		Pattern:      regexp.MustCompile(`(?i)insufficient privileges|not authorized|authentication failed`),
		Category:     contracts.CategoryPermissions,
		Severity:     contracts.SeverityError,
		Keywords:     []string{"privileges", "authentication"},
		SuggestedFix: "Verify authentication credentials and user roles",
	},

	// Resource
	{
		Name:         "resource-memory",
		Pattern:      regexp.MustCompile(`(?i)out\s*of\s*memory|\bOOM|memory limit exceeded|cannot allocate memory`),
		Category:     contracts.CategoryResource,
		Severity:     contracts.SeverityCritical,
		Keywords:     []string{"memory", "oom"},
		SuggestedFix: "Increase memory limits or optimize memory usage",
	},
	{
		Name:         "resource-disk",
		Pattern:      regexp.MustCompile(`(?i)disk (full|space)|no space left|quota exceeded|ENOSPC`),
		Category:     contracts.CategoryResource,
		Severity:     contracts.SeverityCritical,
		Keywords:     []string{"disk", "space", "quota"},
		SuggestedFix: "Free up disk space or increase storage capacity",
	},
	{
		Name:         "resource-cpu",
		Pattern:      regexp.MustCompile(`(?i)cpu (throttling|limit)|max (cpu|processors)|too many processes`),
		Category:     contracts.CategoryResource,
		Severity:     contracts.SeverityWarning,
		Keywords:     []string{"cpu", "throttling", "processes"},
		SuggestedFix: "Optimize CPU usage or increase CPU limits",
	},

	// Configuration
	{
		Name:         "config-invalid",
		Pattern:      regexp.MustCompile(`(?i)invalid configuration|config (error|invalid)|misconfigured|configuration missing`),
		Category:     contracts.CategoryConfig,
		Severity:     contracts.SeverityError,
		Keywords:     []string{"configuration", "config", "misconfigured"},
		SuggestedFix: "Review and correct configuration files",
	},
	{
		Name:         "config-env",
		Pattern:      regexp.MustCompile(`(?i)environment variable.*not (set|found)|missing (env|environment)`),
		Category:     contracts.CategoryConfig,
		Severity:     contracts.SeverityError,
		Keywords:     []string{"environment", "variable", "env"},
		SuggestedFix: "Set required environment variables",
	},
	{
		Name:         "config-port",
		Pattern:      regexp.MustCompile(`(?i)port already in use|address already in use|EADDRINUSE`),
		Category:     contracts.CategoryConfig,
		Severity:     contracts.SeverityError,
		Keywords:     []string{"port", "address"},
		SuggestedFix: "Change port or stop conflicting service",
	},

	// Security
	{
		Name:         "security-tls",
		Pattern:      regexp.MustCompile(`(?i)certificate (invalid|expired)|TLS|SSL (error|handshake failed)|x509`),
		Category:     contracts.CategorySecurity,
		Severity:     contracts.SeverityError,
		Keywords:     []string{"certificate", "ssl", "tls"},
		SuggestedFix: "Update or renew SSL/TLS certificates",
	},
	{
		Name:         "security-incident",
		Pattern:      regexp.MustCompile(`(?i)security violation|breach detected|malicious activity`),
		Category:     contracts.CategorySecurity,
		Severity:     contracts.SeverityCritical,
		Keywords:     []string{"security", "breach", "malicious"},
		SuggestedFix: "Investigate security incident and apply patches",
	},

	// Performance
	{
		Name:         "performance-latency",
		Pattern:      regexp.MustCompile(`(?i)slow (query|response)|performance degradation|high latency|timeout exceeded`),
		Category:     contracts.CategoryPerformance,
		Severity:     contracts.SeverityWarning,
		Keywords:     []string{"slow", "latency", "performance"},
		SuggestedFix: "Optimize queries and check system resources",
	},
	{
		Name:         "performance-locking",
		Pattern:      regexp.MustCompile(`(?i)deadlock|thread blocked|lock timeout`),
		Category:     contracts.CategoryPerformance,
		Severity:     contracts.SeverityError,
		Keywords:     []string{"deadlock", "blocked", "lock"},
		SuggestedFix: "Review locking mechanisms and optimize concurrency",
	},
}

// Rules returns a copy of the ordered rule table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
