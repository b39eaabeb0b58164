package awsenv

import (
	"slices"
)

var knownRegions = map[string]struct{}{
	"us-east-1":     {},
	"us-east-2":     {},
	"us-west-1":     {},
	"us-west-2":     {},
	"us-gov-east-1": {},
	"us-gov-west-1": {},

	"eu-west-1":      {},
	"eu-west-2":      {},
	"eu-west-3":      {},
	"eu-central-1":   {},
	"eu-central-2":   {},
	"eu-north-1":     {},
	"eu-south-1":     {},
	"eu-south-2":     {},
	"eusc-de-east-1": {},

	"ap-east-1":      {},
	"ap-south-1":     {},
	"ap-south-2":     {},
	"ap-northeast-1": {},
	"ap-northeast-2": {},
	"ap-northeast-3": {},
	"ap-southeast-1": {},
	"ap-southeast-2": {},
	"ap-southeast-3": {},
	"ap-southeast-4": {},
	"ap-southeast-5": {},

	"sa-east-1": {},

	"me-south-1":   {},
	"me-central-1": {},

	"af-south-1": {},

	"ca-central-1": {},
	"ca-west-1":    {},

	"il-central-1": {},

	"cn-north-1":     {},
	"cn-northwest-1": {},
}

// IsKnownRegion reports whether region is an AWS region code cdkflow accepts.
func IsKnownRegion(region string) bool {
	_, ok := knownRegions[region]
	return ok
}

// KnownRegions returns a sorted slice of all accepted region codes.
func KnownRegions() []string {
	regions := make([]string, 0, len(knownRegions))
	for region := range knownRegions {
		regions = append(regions, region)
	}
	slices.Sort(regions)
	return regions
}
