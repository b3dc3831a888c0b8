// Package buildinfo holds the firmware identification stamped in by the linker:
//
//	-ldflags "-X freqpanel/internal/buildinfo.Version=1.2 -X freqpanel/internal/buildinfo.Commit=abc123"
package buildinfo

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short is the version if one was stamped, else the commit, else "dev".
func Short() string {
	switch {
	case Version != "" && Version != "dev":
		return Version
	case Commit != "" && Commit != "unknown":
		return Commit
	}
	return "dev"
}

// Banner is the line logged at power-up.
func Banner() string {
	s := "freqpanel " + Short()
	if Date != "" && Date != "unknown" {
		s += " built " + Date
	}
	return s
}
