package contracts

import "fmt"

// Source identifies the upstream system a log line was collected from.
type Source string

const (
	SourceOrchestrator Source = "orchestrator"
	SourceRuntime      Source = "runtime"
	SourceCI           Source = "ci"
	SourceCloudLog     Source = "cloud-log"
)

// Sources lists every Source in a stable order.
func Sources() []Source {
	return []Source{SourceOrchestrator, SourceRuntime, SourceCI, SourceCloudLog}
}

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceOrchestrator, SourceRuntime, SourceCI, SourceCloudLog:
		return true
	}
	return false
}

// ParseSource converts a wire value into a Source.
// Collector names (kubernetes, docker, jenkins, ec2) are accepted as aliases.
func ParseSource(s string) (Source, error) {
	switch s {
	case "orchestrator", "kubernetes", "k8s":
		return SourceOrchestrator, nil
	case "runtime", "docker":
		return SourceRuntime, nil
	case "ci", "jenkins":
		return SourceCI, nil
	case "cloud-log", "cloudwatch", "ec2":
		return SourceCloudLog, nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// Category is the inferred problem area of a log record.
type Category string

const (
	CategoryNetwork     Category = "network"
	CategoryPermissions Category = "permissions"
	CategoryResource    Category = "resource"
	CategoryConfig      Category = "config"
	CategoryApplication Category = "application"
	CategorySecurity    Category = "security"
	CategoryPerformance Category = "performance"
	CategoryUnknown     Category = "unknown"
)

// Categories lists every Category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryNetwork,
		CategoryPermissions,
		CategoryResource,
		CategoryConfig,
		CategoryApplication,
		CategorySecurity,
		CategoryPerformance,
		CategoryUnknown,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryNetwork, CategoryPermissions, CategoryResource, CategoryConfig,
		CategoryApplication, CategorySecurity, CategoryPerformance, CategoryUnknown:
		return true
	}
	return false
}

// Severity is the log level inferred by classification.
// Severities are totally ordered: critical > error > warning > info > debug.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeverityDebug    Severity = "debug"
)

// Severities lists every Severity from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityError, SeverityWarning, SeverityInfo, SeverityDebug}
}

// Rank returns a number that orders severities; higher is more severe.
// Unknown values rank below debug.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	case SeverityDebug:
		return 0
	}
	return -1
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	return s.Rank() >= 0
}

// IsError reports whether s counts as an error (error or critical).
func (s Severity) IsError() bool {
	return s == SeverityError || s == SeverityCritical
}
