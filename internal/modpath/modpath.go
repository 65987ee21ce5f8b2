// Package modpath canonicalizes module references into registry keys.
//
// Keys are plain strings: a reference is either absolute (a URL scheme such
// as "https://" or "file:", or a leading "/") or relative to the directory
// of the module that declares it. Resolution never touches the filesystem
// or the network.
package modpath

import "strings"

// IsAbsolute reports whether raw already names a module without needing a
// declaring module to anchor it.
func IsAbsolute(raw string) bool {
	if strings.HasPrefix(raw, "/") {
		return true
	}
	return schemeLen(raw) > 0
}

// Dir returns the directory part of key including its trailing slash, or
// "" when key has no slash.
func Dir(key string) string {
	i := strings.LastIndex(key, "/")
	if i < 0 {
		return ""
	}
	return key[:i+1]
}

// Resolve turns raw into a canonical key. Relative references are appended
// to Dir(from); then "./" segments are dropped and "seg/../" pairs are
// collapsed until nothing changes. Leading "../" segments that have nothing
// to cancel against are kept.
func Resolve(raw, from string) string {
	joined := raw
	if !IsAbsolute(raw) {
		joined = Dir(from) + raw
	}
	return Clean(joined)
}

// Clean applies the segment rewriting of Resolve to an already joined path.
// The scheme or leading slash is preserved untouched.
func Clean(p string) string {
	prefix, rest := splitRoot(p)
	if rest == "" {
		return p
	}

	segs := strings.Split(rest, "/")
	for {
		next, changed := collapse(segs)
		segs = next
		if !changed {
			break
		}
	}
	return prefix + strings.Join(segs, "/")
}

// collapse performs one rewriting pass and reports whether anything changed.
func collapse(segs []string) ([]string, bool) {
	out := make([]string, 0, len(segs))
	changed := false
	for i := 0; i < len(segs); i++ {
		s := segs[i]
		last := i == len(segs)-1

		// "./" in the middle; a trailing "." names a directory and stays.
		if s == "." && !last {
			changed = true
			continue
		}
		if s == ".." && len(out) > 0 {
			prev := out[len(out)-1]
			if prev != ".." && prev != "" {
				out = out[:len(out)-1]
				changed = true
				if last {
					// "a/b/.." keeps the directory form "a/".
					out = append(out, "")
				}
				continue
			}
		}
		out = append(out, s)
	}
	return out, changed
}

// splitRoot separates the part of p that rewriting must never touch: a URL
// scheme with its authority, or a leading slash.
func splitRoot(p string) (root, rest string) {
	if n := schemeLen(p); n > 0 {
		root, rest = p[:n], p[n:]
		if strings.HasPrefix(rest, "//") {
			// Keep the host with the root so ".." cannot climb over it.
			end := strings.Index(rest[2:], "/")
			if end < 0 {
				return p, ""
			}
			return p[:n+2+end+1], rest[2+end+1:]
		}
		return root, rest
	}
	if strings.HasPrefix(p, "/") {
		return "/", p[1:]
	}
	return "", p
}

// schemeLen returns len("scheme:") when p starts with a URL scheme, else 0.
// Single letters are rejected so Windows drive letters are not mistaken for
// schemes.
func schemeLen(p string) int {
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		case c == ':' && i > 1:
			return i + 1
		default:
			return 0
		}
	}
	return 0
}
