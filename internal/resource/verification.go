package resource

// Verification reports the outcome of the checksum comparison performed by
// the most recent Save.
type Verification int

const (
	// VerificationNone: no Save has completed yet.
	VerificationNone Verification = iota

	// VerificationPassed: local and server MD5 digests matched.
	VerificationPassed

	// VerificationSkipped: the check was skipped — the server reported no
	// checksum, the local file could not be reopened, or verification was
	// disabled. The upload still counts as succeeded.
	VerificationSkipped
)

func (v Verification) String() string {
	switch v {
	case VerificationPassed:
		return "verified"
	case VerificationSkipped:
		return "verification skipped"
	default:
		return "not verified"
	}
}

// SetSkipVerify disables the post-upload checksum comparison for this File.
// Intended for servers or configurations that never report catalog digests.
func (f *File) SetSkipVerify(skip bool) { f.skipVerify = skip }

// Verification reports the outcome of the last Save's checksum check.
func (f *File) Verification() Verification { return f.verification }

// LocalMD5 returns the locally computed digest from the last Save, or ""
// when none was computed.
func (f *File) LocalMD5() string { return f.localMD5 }

// RemoteMD5 returns the server-reported digest from the last Save, or ""
// when the server reported none.
func (f *File) RemoteMD5() string { return f.remoteMD5 }
