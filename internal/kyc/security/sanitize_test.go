package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"kyconboard/internal/kyc/models"
)

type SanitizeSuite struct {
	suite.Suite
}

func TestSanitizeSuite(t *testing.T) {
	suite.Run(t, new(SanitizeSuite))
}

func (s *SanitizeSuite) TestStripsMarkup() {
	s.Run("html tags removed", func() {
		s.Equal("hello world", Sanitize("<b>hello</b> world"))
	})

	s.Run("script blocks removed entirely", func() {
		out := Sanitize(`before<script type="text/javascript">alert("x")</script>after`)
		s.NotContains(out, "alert")
		s.NotContains(out, "<")
		s.NotContains(out, ">")
	})

	s.Run("script blocks removed case-insensitively", func() {
		out := Sanitize("<SCRIPT>payload()</SCRIPT>safe")
		s.NotContains(out, "payload")
		s.Contains(out, "safe")
	})

	s.Run("no angle brackets survive any input", func() {
		inputs := []string{
			"<div onclick=x>text</div>",
			"1 < 2 > 0",
			"<<>>",
			"<unclosed",
		}
		for _, in := range inputs {
			out := Sanitize(in)
			s.NotContains(out, "<", "input %q", in)
			s.NotContains(out, ">", "input %q", in)
		}
	})
}

func (s *SanitizeSuite) TestStripsSQLMetacharacters() {
	s.Run("classic injection", func() {
		s.Equal("1 OR 11", Sanitize("1' OR '1'='1"))
	})

	s.Run("comment and statement separators", func() {
		out := Sanitize("name;-- DROP TABLE users")
		s.NotContains(out, ";")
		s.NotContains(out, "--")
	})

	s.Run("wildcards and operators", func() {
		out := Sanitize("a%b|c*d+e=f")
		s.Equal("abcdef", out)
	})

	s.Run("single hyphens survive", func() {
		s.Equal("Anne-Marie", Sanitize("Anne-Marie"))
	})
}

func (s *SanitizeSuite) TestTrimsAndTruncates() {
	s.Run("surrounding whitespace and newlines trimmed", func() {
		s.Equal("text", Sanitize("  \n\ttext \r\n"))
	})

	s.Run("long input capped at the buffer limit", func() {
		out := Sanitize(strings.Repeat("a", 2*SanitizedFieldMaxLength))
		s.Len(out, SanitizedFieldMaxLength)
	})

	s.Run("truncation never leaves trailing whitespace", func() {
		in := strings.Repeat("a", SanitizedFieldMaxLength-1) + " b"
		out := Sanitize(in)
		s.Equal(out, strings.TrimSpace(out))
	})
}

func (s *SanitizeSuite) TestIdempotent() {
	inputs := []string{
		"plain text",
		"<script>alert('x')</script>",
		"  padded  ",
		"a'b--c;d|e%f<g>h+i=j",
		strings.Repeat("x y ", 300),
		"",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		s.Equal(once, Sanitize(once), "input %q", in)
	}
}

func (s *SanitizeSuite) TestEncodeForDisplay() {
	s.Equal(`&lt;b&gt;&amp; &quot;quoted&#39;`, EncodeForDisplay(`<b>& "quoted'`))
	s.Equal("plain", EncodeForDisplay("plain"))
}

func (s *SanitizeSuite) TestRecordSanitizers() {
	s.Run("person fields sanitized including nested address", func() {
		p := models.Person{
			Name:  models.Name{First: "<b>Jane</b>", Middle: " Q ", Last: "O'Neil"},
			Email: " jane@example.com ",
			Phone: "234-555-6789",
			Address: models.Address{
				AddressLine1: "12 Main St;",
				City:         " Springfield ",
			},
		}
		got := SanitizePerson(p)
		assert.Equal(s.T(), "Jane", got.Name.First)
		assert.Equal(s.T(), "Q", got.Name.Middle)
		assert.Equal(s.T(), "ONeil", got.Name.Last)
		assert.Equal(s.T(), "jane@example.com", got.Email)
		assert.Equal(s.T(), "12 Main St", got.Address.AddressLine1)
		assert.Equal(s.T(), "Springfield", got.Address.City)
	})

	s.Run("bank account fields sanitized", func() {
		b := models.BankAccount{
			AccountHolderName: " Jane Doe ",
			AccountNumber:     "12345678;",
			RoutingNumber:     " 021000021 ",
			BankName:          "First<script>x</script> National",
		}
		got := SanitizeBankAccount(b)
		assert.Equal(s.T(), "Jane Doe", got.AccountHolderName)
		assert.Equal(s.T(), "12345678", got.AccountNumber)
		assert.Equal(s.T(), "021000021", got.RoutingNumber)
		assert.Equal(s.T(), "First National", got.BankName)
	})
}

func (s *SanitizeSuite) TestMasking() {
	s.Run("account number keeps last four", func() {
		s.Equal("********5678", MaskAccountNumber("123456785678"))
	})

	s.Run("short account number fully masked", func() {
		s.Equal("****", MaskAccountNumber("123"))
	})

	s.Run("email keeps two leading characters", func() {
		s.Equal("ja**@example.com", MaskEmail("jane@example.com"))
	})

	s.Run("unparseable email fully masked", func() {
		s.Equal("****@****.com", MaskEmail("no-at-sign"))
		s.Equal("****@****.com", MaskEmail("ab@"))
	})
}

func (s *SanitizeSuite) TestHashSensitive() {
	s.Run("stable hex digest", func() {
		first := HashSensitive("1234567890")
		s.Equal(first, HashSensitive("1234567890"))
		s.Len(first, 64)
	})

	s.Run("distinct inputs diverge", func() {
		s.NotEqual(HashSensitive("1234567890"), HashSensitive("1234567891"))
	})

	s.Run("digest never contains the input", func() {
		s.NotContains(HashSensitive("1234567890"), "1234567890")
	})
}
