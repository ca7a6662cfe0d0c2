package identity

import "errors"

var (
	MissingCredentialsErr   = errors.New("missing credentials")
	BackendRejectedErr      = errors.New("backend rejected request")
	NetworkErr              = errors.New("identity backend unreachable")
	IncompleteCredentialErr = errors.New("backend returned no access token")
	InvalidRoleErr          = errors.New("invalid signup role")
)
