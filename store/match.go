package store

// Match reports whether key matches a Redis-style glob pattern.
//
// '*' matches any run of characters (including none), '?' matches exactly
// one, and '\' escapes the next character. '[...]' matches one character from
// a set: ranges such as 'a-z' are allowed, a leading '^' negates the set, and
// '\' escapes inside it. An unterminated class ends at the end of the
// pattern. Unlike path.Match, '/' has no special meaning.
func Match(pattern, key string) bool {
	p, k := 0, 0
	starP, starK := -1, 0

	for k < len(key) {
		if p < len(pattern) {
			switch c := pattern[p]; {
			case c == '*':
				starP, starK = p, k
				p++
				continue
			case c == '?':
				p++
				k++
				continue
			case c == '[':
				if ok, next := matchClass(pattern, p+1, key[k]); ok {
					p = next
					k++
					continue
				}
			case c == '\\' && p+1 < len(pattern):
				if pattern[p+1] == key[k] {
					p += 2
					k++
					continue
				}
			case c == key[k]:
				p++
				k++
				continue
			}
		}
		if starP < 0 {
			return false
		}
		// Backtrack: let the last '*' swallow one more character.
		starK++
		p, k = starP+1, starK
	}

	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// matchClass tests c against the class starting at pattern[p], just past the
// '['. It returns the index following the closing ']'.
func matchClass(pattern string, p int, c byte) (bool, int) {
	negate := false
	if p < len(pattern) && pattern[p] == '^' {
		negate = true
		p++
	}

	matched := false
	for p < len(pattern) && pattern[p] != ']' {
		switch {
		case pattern[p] == '\\' && p+1 < len(pattern):
			if pattern[p+1] == c {
				matched = true
			}
			p += 2
		case p+2 < len(pattern) && pattern[p+1] == '-':
			lo, hi := pattern[p], pattern[p+2]
			if lo > hi {
				lo, hi = hi, lo
			}
			if c >= lo && c <= hi {
				matched = true
			}
			p += 3
		default:
			if pattern[p] == c {
				matched = true
			}
			p++
		}
	}
	if p < len(pattern) {
		p++
	}

	return matched != negate, p
}
