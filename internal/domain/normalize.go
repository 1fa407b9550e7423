package domain

import (
	"strings"
)

// NormalizeFlag maps registry booleans to "1"/"0". Only "Y" and "True"
// (any case) are true.
func NormalizeFlag(v string) string {
	if strings.EqualFold(v, "Y") || strings.EqualFold(v, "True") {
		return "1"
	}
	return "0"
}

// RenderScope joins scope labels the way they appear in tag maps.
func RenderScope(scopes []string) string {
	return strings.Join(scopes, ", ")
}

// UIDHostname returns hostname_id in uid mode and the bare hostname otherwise.
func UIDHostname(hostname, id string, uid bool) string {
	if uid {
		return hostname + "_" + id
	}
	return hostname
}

// EndpointKey is the contact merge key of an endpoint.
func EndpointKey(hostname, service string) string {
	return hostname + "+" + service
}
