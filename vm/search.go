package vm

import (
	"github.com/coregx/corgex/internal/scan"
	"github.com/coregx/corgex/program"
)

// search scans the subject from s.start for a match, using whatever INFO
// hints the compiler embedded: a literal prefix with its KMP overlap table,
// a leading charset, or a first-opcode literal. Falls back to probing every
// position.
func (s *State) search(code []program.Code) (bool, error) {
	ptr := s.start
	end := s.end

	prefixLen := 0
	prefixSkip := 0
	prefixIdx := -1
	overlapIdx := -1
	charsetIdx := -1
	var flags program.Code
	pc := 0

	if code[0] == program.OpInfo {
		// <INFO> <skip> <flags> <min> <max> <prefix info | charset>
		flags = code[2]
		if code[3] > 1 {
			// Narrow the scan window by the minimum width, leaving at
			// least one position for the literal paths.
			end -= int(code[3]) - 1
			if end <= ptr {
				end = ptr + 1
			}
		}
		if flags&program.InfoPrefix != 0 {
			// <prefix_len> <prefix_skip> <prefix data> <overlap data>
			prefixLen = int(code[5])
			prefixSkip = int(code[6])
			prefixIdx = 7
			overlapIdx = prefixIdx + prefixLen - 1
		} else if flags&program.InfoCharset != 0 {
			charsetIdx = 5
		}
		pc += 1 + int(code[1])
	}

	if prefixLen > 1 {
		// Known prefix: use the overlap table to skip forward as fast
		// as we possibly can.
		i := 0
		end = s.end
		for ptr < end {
			for {
				if program.Code(s.subject[ptr]) != code[prefixIdx+i] {
					if i == 0 {
						break
					}
					i = int(code[overlapIdx+i])
				} else {
					i++
					if i == prefixLen {
						// Candidate start.
						s.start = ptr + 1 - prefixLen
						s.ptr = s.start + prefixSkip
						if flags&program.InfoLiteral != 0 {
							return true, nil // we got all of it
						}
						ok, err := s.match(code, pc+2*prefixSkip)
						if err != nil {
							return false, err
						}
						if ok {
							return true, nil
						}
						// Close but no cigar; keep scanning.
						i = int(code[overlapIdx+i])
					}
					break
				}
			}
			ptr++
		}
		return false, nil
	}

	if code[pc] == program.OpLiteral {
		// Pattern starts with a literal; scan for it before probing.
		chr := rune(code[pc+1])
		for {
			idx := scan.IndexRune(s.subject[:s.end], chr, ptr)
			if idx < 0 {
				return false, nil
			}
			ptr = idx
			s.start = ptr
			ptr++
			s.ptr = ptr
			if flags&program.InfoLiteral != 0 {
				return true, nil
			}
			ok, err := s.match(code, pc+2)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
	}

	if charsetIdx > 0 {
		// Pattern starts with a character from a known set.
		for {
			for ptr < s.end {
				m, err := charset(code, charsetIdx, s.subject[ptr])
				if err != nil {
					return false, err
				}
				if m {
					break
				}
				ptr++
			}
			if ptr >= s.end {
				return false, nil
			}
			s.start = ptr
			s.ptr = ptr
			ok, err := s.match(code, pc)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
			ptr++
		}
	}

	// General case: probe every position up to the narrowed end.
	for ptr <= end {
		s.start = ptr
		s.ptr = ptr
		ok, err := s.match(code, pc)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		ptr++
	}
	return false, nil
}
