package version

const (
	Major = "0"
	Minor = "4"
	Patch = "0"

	Package = "ydb-go-tagpool"
)

const (
	Version     = Major + "." + Minor + "." + Patch
	FullVersion = Package + "/" + Version
)
