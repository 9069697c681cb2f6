package decode

import (
	"fmt"

	"github.com/wudi/jxlkit/cmm"
)

// ResolveProfile picks the colour profile the decoded samples are in. When
// the decoder delivers samples in the original space, that is the embedded
// profile and it must parse with usable colour tags; otherwise the samples are linear sRGB and the
// embedded bytes are ignored.
func ResolveProfile(usesOriginalProfile bool, embedded []byte) (*cmm.ICCProfile, error) {
	if usesOriginalProfile {
		p, err := cmm.NewICCProfile(embedded)
		if err != nil {
			return nil, fail(ProfileCorrupt, "resolve profile", err)
		}
		if err := p.Validate(); err != nil {
			return nil, fail(ProfileCorrupt, "resolve profile", err)
		}
		return p, nil
	}
	// Round-tripped through bytes: the result carries the same s15Fixed16
	// precision as an embedded profile.
	data, err := cmm.LinearSRGB(false).ICC()
	if err != nil {
		return nil, fail(ProfileSynthesisFailed, "resolve profile", err)
	}
	p, err := cmm.NewICCProfile(data)
	if err != nil {
		return nil, fail(ProfileSynthesisFailed, "resolve profile", fmt.Errorf("synthesized profile does not parse: %w", err))
	}
	return p, nil
}
