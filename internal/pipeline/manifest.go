package pipeline

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

const masterManifestName = "master.m3u8"

func formatResolution(p VariantProfile) string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// buildMasterManifest composes the master playlist text. Variants are listed
// highest bandwidth first and referenced by relative URI so the playlist
// works from any base path.
func buildMasterManifest(variants []EncodedVariant) string {
	ordered := make([]EncodedVariant, len(variants))
	copy(ordered, variants)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Profile.Bandwidth() > ordered[j].Profile.Bandwidth()
	})

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	for _, v := range ordered {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%s\n",
			v.Profile.Bandwidth(), formatResolution(v.Profile))
		fmt.Fprintf(&b, "%s/%s\n", v.Profile.Name, variantPlaylistName)
	}
	return b.String()
}

// writeMasterManifest renders the master playlist into staging and returns
// its local path.
func writeMasterManifest(staging *StagingDir, variants []EncodedVariant) (string, error) {
	path := staging.File(masterManifestName)
	if err := os.WriteFile(path, []byte(buildMasterManifest(variants)), 0o644); err != nil {
		return "", fmt.Errorf("write master manifest: %w", err)
	}
	return path, nil
}
