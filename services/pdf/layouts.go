package pdfsvc

import "github.com/ecrmi/institute/core/membership"

// membershipLayout places the member number, issue date and QR code on a
// membership certificate template. Each template was laid out by hand, so
// the offsets are per-template and must not be "simplified" to shared
// constants.
type membershipLayout struct {
	template string
	nameY    float64
	typeY    float64

	memberNoX, memberNoY float64
	dateX, dateY         float64
	qrX, qrY, qrSize     float64
}

// membershipLayouts is keyed by the certificate-id type code.
var membershipLayouts = map[string]membershipLayout{
	"T": {
		template: "membership-technical.png",
		nameY:    86, typeY: 104,
		memberNoX: 58, memberNoY: 146,
		dateX: 58, dateY: 156,
		qrX: 244, qrY: 152, qrSize: 30,
	},
	"A": {
		template: "membership-associate.png",
		nameY:    88, typeY: 106,
		memberNoX: 60, memberNoY: 148,
		dateX: 60, dateY: 158,
		qrX: 242, qrY: 154, qrSize: 30,
	},
	"P": {
		template: "membership-professional.png",
		nameY:    85, typeY: 103,
		memberNoX: 56, memberNoY: 145,
		dateX: 56, dateY: 155,
		qrX: 246, qrY: 150, qrSize: 32,
	},
	"F": {
		template: "membership-fellow.png",
		nameY:    84, typeY: 102,
		memberNoX: 62, memberNoY: 144,
		dateX: 62, dateY: 154,
		qrX: 240, qrY: 150, qrSize: 32,
	},
	"PF": {
		template: "membership-professional-fellow.png",
		nameY:    83, typeY: 101,
		memberNoX: 60, memberNoY: 143,
		dateX: 60, dateY: 153,
		qrX: 243, qrY: 149, qrSize: 32,
	},
	"HF": {
		template: "membership-honorary-fellow.png",
		nameY:    82, typeY: 100,
		memberNoX: 64, memberNoY: 142,
		dateX: 64, dateY: 152,
		qrX: 241, qrY: 148, qrSize: 34,
	},
}

// defaultMembershipLayout backs the fallback type code.
var defaultMembershipLayout = membershipLayout{
	template: "membership-member.png",
	nameY:    86, typeY: 104,
	memberNoX: 58, memberNoY: 146,
	dateX: 58, dateY: 156,
	qrX: 244, qrY: 152, qrSize: 30,
}

func layoutFor(membershipType string) membershipLayout {
	if lay, ok := membershipLayouts[membership.TypeCode(membershipType)]; ok {
		return lay
	}
	return defaultMembershipLayout
}
