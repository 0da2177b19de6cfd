package framing

type lexState uint8

const (
	lexText lexState = iota
	lexMarkup
	lexStartTag
	lexQuoted
	lexEndTag
	lexInstruction
	lexBang
	lexCommentOpen
	lexComment
	lexCDATA
)

// lexer follows element nesting byte by byte so that Framer can tell
// whether new input could have completed the root element. It knows
// just enough XML to skip attribute values, comments, CDATA sections
// and processing instructions. The decoder remains the authority on
// well-formedness.
type lexer struct {
	// off is the number of buffered bytes already lexed
	off   int
	state lexState
	depth int
	// quote is the delimiter of the attribute value being skipped
	quote byte
	// run counts trailing '/', '?', '-' or ']' bytes that may begin
	// the terminator of the current construct
	run int
	// inexact is set once the input holds constructs the lexer does
	// not follow (DTDs, NUL bytes from UTF-16 input). Every Scan then
	// decodes the buffer.
	inexact bool
}

// scan lexes b[l.off:] and reports whether any of it may end the
// root element.
func (l *lexer) scan(b []byte) (closing bool) {
	for ; l.off < len(b) && !l.inexact; l.off++ {
		c := b[l.off]
		if c == 0 {
			l.inexact = true
			break
		}
		switch l.state {
		case lexText:
			switch c {
			case '<':
				l.state = lexMarkup
			case ' ', '\t', '\r', '\n':
			default:
				if l.depth == 0 {
					// stray text; let the decoder judge it
					closing = true
				}
			}
		case lexMarkup:
			switch c {
			case '/':
				l.state = lexEndTag
			case '?':
				l.state, l.run = lexInstruction, 0
			case '!':
				l.state = lexBang
			case '>':
				l.state, closing = lexText, true
			default:
				l.state, l.run = lexStartTag, 0
			}
		case lexStartTag:
			switch c {
			case '"', '\'':
				l.state, l.quote = lexQuoted, c
			case '/':
				l.run = 1
			case '>':
				if l.run == 1 {
					closing = closing || l.depth == 0
				} else {
					l.depth++
				}
				l.state = lexText
			default:
				l.run = 0
			}
		case lexQuoted:
			if c == l.quote {
				l.state, l.run = lexStartTag, 0
			}
		case lexEndTag:
			if c == '>' {
				if l.depth--; l.depth <= 0 {
					l.depth, closing = 0, true
				}
				l.state = lexText
			}
		case lexInstruction:
			switch {
			case c == '>' && l.run == 1:
				l.state = lexText
			case c == '?':
				l.run = 1
			default:
				l.run = 0
			}
		case lexBang:
			switch c {
			case '-':
				l.state = lexCommentOpen
			case '[':
				l.state, l.run = lexCDATA, 0
			default:
				l.inexact = true
			}
		case lexCommentOpen:
			if c != '-' {
				// "<!-" not followed by '-' never becomes a comment
				l.state, closing = lexText, true
				break
			}
			l.state, l.run = lexComment, 0
		case lexComment:
			switch {
			case c == '>' && l.run >= 2:
				l.state = lexText
			case c == '-':
				l.run++
			default:
				l.run = 0
			}
		case lexCDATA:
			switch {
			case c == '>' && l.run >= 2:
				l.state = lexText
			case c == ']':
				l.run++
			default:
				l.run = 0
			}
		}
	}
	return closing
}
