package identity

//go:generate go run github.com/dmarkham/enumer -type Backend -trimprefix Backend -transform lower -output backend_gen.go

// Backend identifies which of the two identity backends served a
// record or an authentication.
type Backend int

const (
	BackendSQL Backend = iota
	BackendLDAP
)
