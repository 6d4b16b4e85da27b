// internal/domain/member/service.go
package member

import "strings"

// FormatDisplayName renders "Full Name (NPA)"; the NPA part is dropped when empty.
func FormatDisplayName(fullName, npa string) string {
	name := strings.Join(strings.Fields(fullName), " ")
	npa = strings.TrimSpace(npa)
	switch {
	case name != "" && npa != "":
		return name + " (" + npa + ")"
	case name != "":
		return name
	default:
		return npa
	}
}
