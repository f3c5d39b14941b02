package firmware

import (
	"fmt"
	"sort"
	"strings"
)

// ExtractVariant returns the hardware variant encoded in a firmware
// filename of the form <name>-<variant>.<bin|hex>. DFU images and names
// without a hyphen before the extension carry no variant.
func ExtractVariant(name string) (string, bool) {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return "", false
	}
	stem, ext := name[:dot], name[dot+1:]
	if ext != "bin" && ext != "hex" {
		return "", false
	}
	hyphen := strings.LastIndexByte(stem, '-')
	if hyphen < 0 || hyphen == len(stem)-1 {
		return "", false
	}
	return stem[hyphen+1:], true
}

// Variants returns the sorted, de-duplicated variants offered by a release.
// A release whose assets yield no variant returns ErrNoVariant.
func Variants(r Release) ([]string, error) {
	seen := make(map[string]bool)
	var variants []string
	for _, asset := range r.Assets {
		v, ok := ExtractVariant(asset)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		variants = append(variants, v)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w in release %s", ErrNoVariant, r.Tag)
	}
	sort.Strings(variants)
	return variants, nil
}

// AssetForVariant returns the first bin/hex asset of r built for variant.
func AssetForVariant(r Release, variant string) (string, error) {
	for _, asset := range r.Assets {
		if v, ok := ExtractVariant(asset); ok && v == variant {
			return asset, nil
		}
	}
	return "", fmt.Errorf("%w: no asset for variant %q in release %s", ErrAssetNotFound, variant, r.Tag)
}
