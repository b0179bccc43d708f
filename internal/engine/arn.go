package engine

import "strings"

// Arn is the decomposed form of an Amazon Resource Name:
// arn:partition:service:region:account-id:resource.
type Arn struct {
	Partition  string
	Service    string
	Region     string
	AccountID  string
	ResourceID []string
}

// parseArn splits s per ARN grammar. Partition, service, and resource must
// be non-empty; region and account id may be empty. The resource section is
// split on ":" into components; "/" stays inside a component. Anything not
// ARN-shaped reports ok=false.
func parseArn(s string) (Arn, bool) {
	parts := strings.SplitN(s, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" {
		return Arn{}, false
	}
	if parts[1] == "" || parts[2] == "" || parts[5] == "" {
		return Arn{}, false
	}
	return Arn{
		Partition:  parts[1],
		Service:    parts[2],
		Region:     parts[3],
		AccountID:  parts[4],
		ResourceID: strings.Split(parts[5], ":"),
	}, true
}
