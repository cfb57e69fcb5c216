package yx5300

// Parser frames received bytes one at a time.
// The zero value is ready for use and expects checksums.
type Parser struct {
	// DisableChecksum expects frames without the two checksum bytes.
	DisableChecksum bool

	state   parseState
	frame   Frame
	raw     [FrameSize]byte
	recvLen int
}

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	// Frame is set when a complete frame was received.
	Frame *Frame
	// Valid is false when Frame failed checksum verification.
	Valid bool
	// Discarded counts the bytes dropped while resynchronizing.
	Discarded int
	// BadVersion is set when a start marker was followed by
	// an unexpected version byte.
	BadVersion bool
}

// Status converts the result into the status to report.
// Checksum failures are reported as StatusChecksum.
func (r ParseResult) Status() Status {
	if r.Frame == nil {
		return Status{}
	}
	if !r.Valid {
		return Status{Code: StatusChecksum}
	}
	return r.Frame.Status()
}

type parseState int

const (
	stateStart     parseState = iota // waiting for start marker
	stateVersion                     // waiting for version
	stateLength                      // waiting for length
	stateCommand                     // waiting for command
	stateFeedback                    // waiting for feedback flag
	stateData1                       // waiting for data high byte
	stateData2                       // waiting for data low byte
	stateChecksumH                   // waiting for checksum high byte
	stateChecksumL                   // waiting for checksum low byte
	stateEnd                         // waiting for end marker
)

// InFrame indicates part of a frame has been received.
func (p *Parser) InFrame() bool {
	return p.state != stateStart
}

// Reset drops any partially received frame and returns
// the number of bytes dropped.
func (p *Parser) Reset() int {
	n := p.recvLen
	p.state, p.recvLen = stateStart, 0
	return n
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateStart:
		if b != StartMarker {
			pr.Discarded = 1
			return
		}
		p.frame = Frame{}
		p.state = stateVersion
	case stateVersion:
		if b != Version {
			pr.BadVersion = true
			p.resync(b, &pr)
			return
		}
		p.frame.Version = b
		p.state = stateLength
	case stateLength:
		if b != PayloadLength {
			p.resync(b, &pr)
			return
		}
		p.frame.Length = b
		p.state = stateCommand
	case stateCommand:
		p.frame.Command = b
		p.state = stateFeedback
	case stateFeedback:
		p.frame.Feedback = b
		p.state = stateData1
	case stateData1:
		p.frame.Data1 = b
		p.state = stateData2
	case stateData2:
		p.frame.Data2 = b
		if p.DisableChecksum {
			p.state = stateEnd
		} else {
			p.state = stateChecksumH
		}
	case stateChecksumH:
		p.frame.Checksum = uint16(b) << 8
		p.state = stateChecksumL
	case stateChecksumL:
		p.frame.Checksum |= uint16(b)
		p.state = stateEnd
	case stateEnd:
		if b != EndMarker {
			p.resync(b, &pr)
			return
		}
		return p.frameReady()
	}
	p.raw[p.recvLen] = b
	p.recvLen++
	return
}

// resync drops the start marker of the partial frame and parses the
// rest of its bytes again followed by b, so a start marker among them
// begins the next frame. No frame can complete from these bytes as
// they are shorter than a frame.
func (p *Parser) resync(b byte, pr *ParseResult) {
	var rest [FrameSize]byte
	n := copy(rest[:], p.raw[1:p.recvLen])
	rest[n] = b
	p.state, p.recvLen = stateStart, 0
	pr.Discarded++
	for _, c := range rest[:n+1] {
		r := p.Parse(c)
		pr.Discarded += r.Discarded
		pr.BadVersion = pr.BadVersion || r.BadVersion
	}
}

func (p *Parser) frameReady() (pr ParseResult) {
	p.state, p.recvLen = stateStart, 0
	frame := p.frame
	if p.DisableChecksum {
		frame.Checksum = frame.ComputeChecksum()
	}
	pr.Frame, pr.Valid = &frame, frame.ChecksumValid()
	return
}
