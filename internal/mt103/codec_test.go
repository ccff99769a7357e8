package mt103_test

import (
	"math/rand/v2"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zdziszkee/mt103-simulator/internal/models"
	"github.com/zdziszkee/mt103-simulator/internal/mt103"
)

var (
	rob = mt103.Party{
		Bank:    "BANKROBE",
		Branch:  "ABC",
		Account: "12345678901234567890",
		Name:    "Rob Parker",
	}
	harry = mt103.Party{
		Bank:    "BANKGRAH",
		Branch:  "DEF",
		Account: "09876543210987654321",
		Name:    "Harry Houdini",
	}
	valueDate = time.Date(2024, time.March, 9, 12, 0, 0, 0, time.Local)
)

func newPayment(seq int) *mt103.Payment {
	p, err := mt103.NewPayment(rob, harry, 250, models.GBP, 7, seq, rand.New(rand.NewPCG(1, 1)))
	Expect(err).NotTo(HaveOccurred())
	return p
}

var _ = Describe("MT103 codec", func() {
	Describe("NewPayment", func() {
		It("should pad session and sequence and build the references", func() {
			p := newPayment(0)
			Expect(p.Session).To(Equal("0007"))
			Expect(p.Sequence).To(Equal("000000"))
			Expect(p.Reference).To(MatchRegexp(`^[A-Z0-9]{16}$`))
			Expect(p.TransactionRef).To(Equal("ROBTOHAR0"))
		})

		It("should use the raw sequence number in the transaction reference", func() {
			Expect(newPayment(42).TransactionRef).To(Equal("ROBTOHAR42"))
		})

		It("should reject names shorter than 3 characters", func() {
			short := rob
			short.Name = "Al"
			_, err := mt103.NewPayment(short, harry, 1, models.GBP, 1, 1, nil)
			Expect(err).To(MatchError(mt103.ErrBadName))

			_, err = mt103.NewPayment(rob, mt103.Party{Name: "Jo"}, 1, models.GBP, 1, 1, nil)
			Expect(err).To(MatchError(mt103.ErrBadName))
		})
	})

	Describe("PadInt", func() {
		DescribeTable("fixed width formatting",
			func(in, places int, expected string) {
				Expect(mt103.PadInt(in, places)).To(Equal(expected))
			},
			Entry("pads with zeros", 7, 4, "0007"),
			Entry("exact width", 1234, 4, "1234"),
			Entry("zero", 0, 6, "000000"),
			Entry("drops only the first character when too wide", 1234567, 6, "234567"),
			Entry("drops one character even when two too wide", 12345678, 6, "2345678"),
		)
	})

	Describe("EncodeAt", func() {
		var lines []string

		BeforeEach(func() {
			lines = strings.Split(mt103.EncodeAt(newPayment(0), valueDate), "\r\n")
		})

		It("should lay out the header blocks at fixed offsets", func() {
			header := lines[0]
			Expect(header).To(HavePrefix("{1:F01BANKROBEZABC00070000"))
			Expect(header[6:14]).To(Equal("BANKROBE"))
			Expect(header[14:15]).To(Equal("Z"))
			Expect(header[15:18]).To(Equal("ABC"))
			Expect(header[18:22]).To(Equal("0007"))
			Expect(header[22:28]).To(Equal("000000"))
			Expect(header[28:36]).To(Equal("}{2:I103"))
			Expect(header[36:44]).To(Equal("BANKGRAH"))
			Expect(header[44:45]).To(Equal("X"))
			Expect(header[45:48]).To(Equal("DEF"))
			Expect(header[48:72]).To(Equal("N1020}{3:{113:SEPA}{108:"))
			Expect(header[88:]).To(Equal("}}{4:"))
		})

		It("should write the body fields in order", func() {
			Expect(lines).To(HaveLen(10))
			Expect(lines[1]).To(Equal(":20:ROBTOHAR0"))
			Expect(lines[2]).To(Equal(":23B:CRED"))
			Expect(lines[3]).To(Equal(":32A:240309GBP250,00"))
			Expect(lines[4]).To(Equal(":50A:/12345678901234567890 Rob Parker"))
			Expect(lines[5]).To(Equal(":59:/09876543210987654321 Harry Houdini"))
			Expect(lines[6]).To(Equal(":70:INVOICE 000000"))
			Expect(lines[7]).To(Equal(":71A:SHA"))
			Expect(lines[8]).To(Equal("-}"))
			Expect(lines[9]).To(MatchRegexp(`^\{5:\{CHK:[0-9a-f]{32}\}\}$`))
		})

		It("should checksum everything up to the body terminator", func() {
			message := mt103.EncodeAt(newPayment(3), valueDate)
			idx := strings.Index(message, "{5:")
			Expect(message[idx:]).To(Equal("{5:{CHK:" + mt103.Checksum(message[:idx]) + "}}"))
			Expect(mt103.VerifyChecksum(message)).To(Succeed())
		})

		It("should date messages with today's local date", func() {
			lines := strings.Split(mt103.Encode(newPayment(0)), "\r\n")
			Expect(lines[3]).To(HavePrefix(":32A:" + time.Now().Format("060102") + "GBP250,00"))
		})
	})

	Describe("Decode", func() {
		It("should recover every round-trip field", func() {
			original := newPayment(0)
			decoded, err := mt103.Decode(mt103.EncodeAt(original, valueDate))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(original))
		})

		It("should round trip large amounts and sequence numbers", func() {
			p, err := mt103.NewPayment(harry, rob, 987654, models.EUR, 9999, 123456, nil)
			Expect(err).NotTo(HaveOccurred())
			decoded, err := mt103.DecodeStrict(mt103.Encode(p))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(p))
		})

		It("should ignore a wrong checksum unless strict", func() {
			message := mt103.EncodeAt(newPayment(1), valueDate)
			tampered := strings.Replace(message, "250,00", "999,00", 1)

			decoded, err := mt103.Decode(tampered)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded.Amount).To(Equal(999))

			_, err = mt103.DecodeStrict(tampered)
			Expect(err).To(MatchError(mt103.ErrChecksum))
		})

		It("should fail strict decoding without a footer", func() {
			_, err := mt103.DecodeStrict("no footer here")
			Expect(err).To(MatchError(mt103.ErrChecksum))
		})

		Context("with malformed input", func() {
			var message string

			BeforeEach(func() {
				message = mt103.EncodeAt(newPayment(0), valueDate)
			})

			replaceLine := func(index int, value string) string {
				lines := strings.Split(message, "\r\n")
				lines[index] = value
				return strings.Join(lines, "\r\n")
			}

			It("should reject too few lines", func() {
				_, err := mt103.Decode("{1:F01}\r\n:20:X")
				Expect(err).To(MatchError(mt103.ErrDecode))
			})

			It("should reject a truncated header", func() {
				_, err := mt103.Decode(replaceLine(0, "{1:F01BANKROBEZABC"))
				Expect(err).To(MatchError(mt103.ErrDecode))
			})

			It("should reject a header with the wrong layout", func() {
				_, err := mt103.Decode(replaceLine(0, strings.Repeat("?", 93)))
				Expect(err).To(MatchError(mt103.ErrDecode))
			})

			It("should reject a missing transaction reference", func() {
				_, err := mt103.Decode(replaceLine(1, ":21:ROBTOHAR0"))
				Expect(err).To(MatchError(mt103.ErrDecode))
			})

			It("should reject an unparsable amount", func() {
				_, err := mt103.Decode(replaceLine(3, ":32A:240309GBP2x0,00"))
				Expect(err).To(MatchError(mt103.ErrDecode))

				_, err = mt103.Decode(replaceLine(3, ":32A:240309GBP250"))
				Expect(err).To(MatchError(mt103.ErrDecode))
			})

			It("should reject an unknown currency", func() {
				_, err := mt103.Decode(replaceLine(3, ":32A:240309JPY250,00"))
				Expect(err).To(MatchError(mt103.ErrDecode))
				Expect(err).To(MatchError(models.ErrBadCurrency))
			})

			It("should reject party lines without a name", func() {
				_, err := mt103.Decode(replaceLine(5, ":59:/09876543210987654321"))
				Expect(err).To(MatchError(mt103.ErrDecode))

				_, err = mt103.Decode(replaceLine(4, ":50K:/1 Rob"))
				Expect(err).To(MatchError(mt103.ErrDecode))
			})
		})
	})

	It("should summarise a payment on one line", func() {
		Expect(newPayment(0).Summary()).To(Equal("BANKROBE/Rob Parker/250,00GBP->BANKGRAH/Harry Houdini"))
	})
})
