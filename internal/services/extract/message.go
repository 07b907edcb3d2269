package extract

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"regexp"
	"strings"
)

// Message is an inbound email reduced to what extraction needs
type Message struct {
	// To is the first recipient address, empty when absent
	To string
	// Body is the chosen text part, or the rendered HTML part
	Body string
	// HTML reports whether Body was rendered from markup
	HTML bool
}

// envelopeHeaders mark a payload as an RFC 5322 message rather than bare text.
// Label lines such as "Name: X" would otherwise parse as headers.
var envelopeHeaders = []string{"Content-Type", "Mime-Version", "To", "From", "Subject", "Received", "Message-Id"}

var errNoTextPart = errors.New("no text part")

var htmlTag = regexp.MustCompile(`(?i)<(!doctype html|html|body|table|div|p|br)[\s/>]`)

// ReadMessage normalizes a raw payload into a Message. Payloads that are not
// MIME messages are used as-is, rendering them first when they look like HTML.
func ReadMessage(raw string, renderer TextRenderer) (Message, error) {
	msg, err := mail.ReadMessage(bufio.NewReader(strings.NewReader(raw)))
	if err != nil || !hasEnvelope(msg.Header) {
		return plainMessage(raw, renderer)
	}

	out := Message{To: firstAddress(msg.Header.Get("To"))}

	text, isHTML, err := readEntity(textproto.MIMEHeader(msg.Header), msg.Body)
	if err != nil {
		if errors.Is(err, errNoTextPart) {
			return out, nil
		}
		return out, err
	}
	if isHTML {
		rendered, err := renderer.Render(text)
		if err != nil {
			return out, fmt.Errorf("render html part: %w", err)
		}
		out.Body, out.HTML = rendered, true
		return out, nil
	}
	out.Body = text
	return out, nil
}

func plainMessage(raw string, renderer TextRenderer) (Message, error) {
	if !looksLikeHTML(raw) {
		return Message{Body: raw}, nil
	}
	rendered, err := renderer.Render(raw)
	if err != nil {
		return Message{Body: raw}, fmt.Errorf("render html body: %w", err)
	}
	return Message{Body: rendered, HTML: true}, nil
}

func hasEnvelope(h mail.Header) bool {
	for _, name := range envelopeHeaders {
		if h.Get(name) != "" {
			return true
		}
	}
	return false
}

func looksLikeHTML(s string) bool {
	if len(s) > 4096 {
		s = s[:4096]
	}
	return htmlTag.MatchString(s)
}

// readEntity returns the preferred text of a MIME entity. The first text/plain
// part wins; otherwise the first text/html part is returned with isHTML set.
func readEntity(header textproto.MIMEHeader, body io.Reader) (text string, isHTML bool, err error) {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		// missing or broken Content-Type defaults to text/plain
		mediaType, params = "text/plain", nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return "", false, fmt.Errorf("multipart message without boundary")
		}
		return readMultipart(multipart.NewReader(body, boundary))
	}

	switch mediaType {
	case "text/plain", "text/html":
		data, err := io.ReadAll(decodeTransfer(header.Get("Content-Transfer-Encoding"), body))
		if err != nil {
			return "", false, fmt.Errorf("read %s part: %w", mediaType, err)
		}
		return string(data), mediaType == "text/html", nil
	}
	return "", false, errNoTextPart
}

func readMultipart(mr *multipart.Reader) (string, bool, error) {
	var html string
	haveHTML := false

	for {
		// NextPart decodes quoted-printable bodies itself
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", false, fmt.Errorf("read multipart: %w", err)
		}

		text, isHTML, err := readEntity(part.Header, part)
		_ = part.Close()
		if err != nil {
			if errors.Is(err, errNoTextPart) {
				continue
			}
			return "", false, err
		}
		if !isHTML {
			return text, false, nil
		}
		if !haveHTML {
			html, haveHTML = text, true
		}
	}

	if haveHTML {
		return html, true, nil
	}
	return "", false, errNoTextPart
}

func decodeTransfer(encoding string, body io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, newlineStripper{body})
	case "quoted-printable":
		return quotedprintable.NewReader(body)
	}
	return body
}

// newlineStripper drops CR and LF so wrapped base64 decodes cleanly
type newlineStripper struct {
	r io.Reader
}

func (s newlineStripper) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	out := p[:0]
	for _, b := range p[:n] {
		if b != '\r' && b != '\n' {
			out = append(out, b)
		}
	}
	return len(out), err
}

func firstAddress(header string) string {
	if header == "" {
		return ""
	}
	addrs, err := mail.ParseAddressList(header)
	if err != nil || len(addrs) == 0 {
		return strings.TrimSpace(header)
	}
	return addrs[0].Address
}

// normalizeAddress returns the bare address from values like "Jane <j@x.org>"
func normalizeAddress(value string) string {
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return value
	}
	return addr.Address
}

// NormalizeText unifies line endings, joins quoted-printable soft line breaks
// and trims trailing whitespace from every line.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "=\n", "")
	text = strings.ReplaceAll(text, "\u00a0", " ")

	var b bytes.Buffer
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(b.String())
}
