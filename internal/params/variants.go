package params

import (
	"github.com/kgkim70/openpilot/internal/interp"
	"github.com/kgkim70/openpilot/internal/units"
)

// baseProfile holds the shared GM defaults applied before any variant.
// An unrecognized variant gets exactly these.
func baseProfile(v Variant) Profile {
	return Profile{
		Variant:          v,
		CarName:          "gm",
		SafetyModel:      SafetyGM,
		EnableCruise:     false,
		CommunityFeature: true,

		Mass:           refMass,
		Wheelbase:      refWheelbase,
		SteerRatio:     15.38,
		SteerRatioRear: 0,

		TireStiffnessFactor: 0.444,

		SteerRateCost:      0.75,
		SteerActuatorDelay: 0.225,
		SteerMax:           interp.Const(1.0),
		SteerLimitTimer:    2.5,
		LateralTuning: LateralTuning{
			Kind: LateralPID,
			PID: &PIDTuning{
				Kp: interp.Const(0.2),
				Ki: interp.Const(0.0),
				Kf: 0.00004,
			},
		},

		LongitudinalTuning: LongitudinalTuning{
			Kp:       interp.Curve{BP: []float64{5., 35.}, V: []float64{2.4, 1.5}},
			Ki:       interp.Curve{BP: []float64{0.}, V: []float64{0.36}},
			Deadzone: interp.Const(0),
		},
		StoppingControl: true,
		StartAccel:      0.8,
		MinEnableSpeed:  18 * units.MPHToMS,
		// GM radar runs at 15Hz instead of the standard 20Hz.
		RadarTimeStep: 0.0667,
	}
}

func ptr[T any](v T) *T { return &v }

// variantOverrides is the per-variant tuning table.
var variantOverrides = map[Variant]Overrides{
	Bolt: {
		MinEnableSpeed:      ptr(-1.),
		CurbMass:            ptr(1616.),
		Wheelbase:           ptr(2.60096),
		CenterToFrontRatio:  ptr(0.4),
		SteerRatio:          ptr(16.8),
		SteerRatioRear:      ptr(0.),
		TireStiffnessFactor: ptr(1.0),
		SteerMax: &interp.Curve{
			BP: []float64{30 * units.KPHToMS, 60 * units.KPHToMS},
			V:  []float64{1.400, 1.300},
		},
		LateralTuning: &LateralTuning{
			Kind: LateralLQR,
			LQR: &LQRTuning{
				Scale:  interp.Curve{BP: []float64{20 * units.KPHToMS, 60 * units.KPHToMS}, V: []float64{2225.0, 1900.0}},
				Ki:     0.024,
				A:      []float64{0., 1., -0.22619643, 1.21822268},
				B:      []float64{-1.92006585e-04, 3.95603032e-05},
				C:      []float64{1., 0.},
				K:      []float64{-110., 451.},
				L:      []float64{0.33, 0.318},
				DcGain: 0.00225,
			},
		},
	},
	Volt: {
		MinEnableSpeed:     ptr(18 * units.MPHToMS),
		CurbMass:           ptr(1607.),
		Wheelbase:          ptr(2.69),
		CenterToFrontRatio: ptr(0.4),
		SteerRatio:         ptr(15.7),
		SteerRatioRear:     ptr(0.),
	},
	Malibu: {
		MinEnableSpeed:     ptr(18 * units.MPHToMS),
		CurbMass:           ptr(1496.),
		Wheelbase:          ptr(2.83),
		CenterToFrontRatio: ptr(0.4),
		SteerRatio:         ptr(15.8),
		SteerRatioRear:     ptr(0.),
	},
	Acadia: {
		// engage speed is decided by the PCM
		MinEnableSpeed:     ptr(-1.),
		CurbMass:           ptr(4353. * units.LbToKg),
		Wheelbase:          ptr(2.86),
		CenterToFrontRatio: ptr(0.4),
		SteerRatio:         ptr(14.4),
		SteerRatioRear:     ptr(0.),
	},
	CadillacATS: {
		MinEnableSpeed:     ptr(18 * units.MPHToMS),
		CurbMass:           ptr(1601.),
		Wheelbase:          ptr(2.78),
		CenterToFrontRatio: ptr(0.4),
		SteerRatio:         ptr(15.3),
		SteerRatioRear:     ptr(0.),
	},
}

// Variants returns the supported variant identifiers.
func Variants() []Variant {
	return []Variant{Bolt, Volt, Malibu, Acadia, CadillacATS}
}

// referenceFingerprints are the known bus-0 fingerprints per variant.
// Only ECU presence checks read them; variant identification happens
// upstream.
var referenceFingerprints = map[Variant][]map[uint32]int{
	Bolt: {
		{170: 8, 188: 8, 189: 7, 190: 6, 193: 8, 197: 8, 201: 8, 209: 7, 211: 3, 241: 6, 249: 8, 288: 5, 298: 8, 304: 1, 309: 8, 311: 8, 313: 8, 320: 3, 322: 7, 328: 1, 352: 5, 381: 8, 384: 4, 386: 8, 388: 8, 451: 8, 452: 8, 453: 6, 458: 5, 463: 3, 479: 3, 481: 7, 485: 8, 489: 8, 497: 8, 500: 6, 501: 8, 528: 5, 532: 6, 560: 8, 562: 8, 563: 5, 565: 5, 566: 8, 587: 8, 608: 8, 609: 6, 610: 6, 611: 6, 612: 8, 613: 8, 707: 8, 715: 8, 717: 5, 753: 5, 761: 7, 789: 5, 800: 6, 810: 8, 840: 5, 842: 5, 844: 8, 848: 4, 869: 4, 880: 6, 977: 8, 1001: 8, 1017: 8, 1020: 8, 1217: 8, 1221: 5, 1233: 8, 1249: 8, 1265: 8, 1275: 3, 1280: 4, 1296: 4, 1300: 8, 1611: 8, 1930: 7},
	},
	Volt: {
		{170: 8, 171: 8, 189: 7, 190: 6, 193: 8, 197: 8, 199: 4, 201: 8, 209: 7, 211: 2, 241: 6, 288: 5, 289: 8, 298: 8, 304: 1, 308: 4, 309: 8, 311: 8, 313: 8, 320: 3, 328: 1, 352: 5, 381: 6, 384: 4, 386: 8, 388: 8, 389: 2, 390: 7, 417: 7, 419: 1, 426: 7, 451: 8, 452: 8, 453: 6, 454: 8, 456: 8, 479: 3, 481: 7, 485: 8, 489: 8, 493: 8, 495: 4, 497: 8, 499: 3, 500: 6, 501: 8, 508: 8, 528: 4, 532: 6, 546: 7, 550: 8, 554: 3, 558: 8, 560: 8, 562: 8, 563: 5, 564: 5, 565: 5, 566: 5, 567: 3, 568: 1, 573: 1, 577: 8, 647: 3, 707: 8, 711: 6, 715: 8, 761: 7, 810: 8, 840: 5, 842: 5, 844: 8, 866: 4, 961: 8, 969: 8, 977: 8, 979: 7, 988: 6, 989: 8, 995: 7, 1001: 8, 1005: 6, 1009: 8, 1017: 8, 1019: 2, 1020: 8, 1105: 6, 1187: 4, 1217: 8, 1221: 5, 1223: 3, 1225: 7, 1227: 4, 1233: 8, 1249: 8, 1257: 6, 1265: 8, 1275: 3, 1280: 4, 1300: 8, 1322: 6, 1323: 4, 1328: 4, 1417: 8, 1601: 8, 1905: 7, 1906: 7, 1907: 7, 1910: 7, 1912: 7, 1922: 7, 1927: 7, 1928: 7, 2016: 8, 2020: 8, 2024: 8, 2028: 8},
	},
	Malibu: {
		{190: 6, 193: 8, 197: 8, 199: 4, 201: 8, 209: 7, 211: 2, 241: 6, 249: 8, 288: 5, 298: 8, 304: 1, 309: 8, 311: 8, 313: 8, 320: 3, 328: 1, 352: 5, 381: 6, 384: 4, 386: 8, 388: 8, 393: 7, 398: 8, 407: 7, 413: 8, 417: 7, 419: 1, 422: 4, 426: 7, 431: 8, 442: 8, 451: 8, 452: 8, 453: 6, 455: 7, 456: 8, 479: 3, 481: 7, 485: 8, 489: 8, 497: 8, 499: 3, 500: 6, 501: 8, 508: 8, 510: 8, 528: 5, 532: 6, 562: 8, 563: 5, 564: 5, 565: 5, 567: 5, 573: 1, 577: 8, 608: 8, 609: 6, 610: 6, 611: 6, 612: 8, 613: 8, 647: 6, 715: 8, 717: 5, 761: 7, 800: 6, 810: 8, 840: 5, 842: 5, 844: 8, 866: 4, 961: 8, 969: 8, 977: 8, 979: 8, 985: 5, 1001: 8, 1005: 6, 1009: 8, 1013: 3, 1017: 8, 1019: 2, 1020: 8, 1033: 7, 1034: 7, 1105: 6, 1217: 8, 1221: 5, 1223: 2, 1225: 7, 1233: 8, 1249: 8, 1257: 6, 1265: 8, 1267: 1, 1280: 4, 1300: 8, 1322: 6, 1323: 4, 1328: 4, 1417: 8, 1930: 7, 2016: 8, 2024: 8},
	},
	Acadia: {
		{190: 6, 192: 5, 193: 8, 197: 8, 199: 4, 201: 6, 208: 8, 209: 7, 211: 2, 241: 6, 249: 8, 288: 5, 289: 1, 290: 1, 298: 8, 304: 8, 309: 8, 313: 8, 320: 8, 322: 7, 328: 1, 352: 7, 368: 8, 381: 8, 384: 8, 386: 8, 388: 8, 393: 8, 398: 8, 413: 8, 417: 7, 419: 1, 422: 4, 426: 7, 431: 8, 442: 8, 451: 8, 452: 8, 453: 6, 454: 8, 455: 7, 458: 8, 460: 4, 462: 4, 463: 3, 479: 3, 481: 7, 485: 8, 489: 5, 497: 8, 499: 3, 500: 6, 501: 8, 508: 8, 510: 8, 532: 6, 554: 3, 560: 8, 562: 8, 563: 5, 564: 5, 567: 5, 573: 1, 577: 8, 608: 8, 609: 6, 610: 6, 611: 6, 612: 8, 613: 8, 647: 6, 707: 8, 715: 8, 717: 5, 753: 5, 761: 7, 840: 5, 842: 5, 844: 8, 866: 4, 869: 4, 880: 6, 961: 8, 969: 8, 977: 8, 979: 8, 985: 5, 1001: 8, 1005: 6, 1009: 8, 1017: 8, 1020: 8, 1033: 7, 1034: 7, 1105: 6, 1217: 8, 1221: 5, 1225: 8, 1233: 8, 1249: 8, 1257: 6, 1265: 8, 1267: 4, 1280: 4, 1296: 4, 1300: 8, 1322: 6, 1328: 4, 1417: 8, 1906: 7, 1907: 7, 1912: 7, 1914: 7, 1918: 7, 1919: 7, 1930: 7, 2016: 8, 2024: 8},
	},
	CadillacATS: {
		{190: 6, 193: 8, 197: 8, 199: 4, 201: 8, 209: 7, 211: 2, 241: 6, 249: 8, 288: 5, 298: 8, 304: 1, 309: 8, 311: 8, 313: 8, 320: 3, 322: 7, 328: 1, 352: 5, 368: 3, 381: 6, 384: 4, 386: 8, 388: 8, 393: 7, 398: 8, 401: 8, 407: 7, 413: 8, 417: 7, 419: 1, 422: 4, 426: 7, 431: 8, 442: 8, 451: 8, 452: 8, 453: 6, 455: 7, 456: 8, 462: 4, 479: 3, 481: 7, 485: 8, 487: 8, 489: 8, 491: 2, 493: 8, 497: 8, 499: 3, 500: 6, 501: 8, 508: 8, 510: 8, 528: 5, 532: 6, 554: 3, 560: 8, 562: 8, 563: 5, 564: 5, 565: 5, 567: 5, 573: 1, 577: 8, 608: 8, 609: 6, 610: 6, 611: 6, 612: 8, 613: 8, 647: 6, 707: 8, 715: 8, 717: 5, 719: 5, 723: 2, 753: 5, 761: 7, 801: 8, 804: 3, 810: 8, 840: 5, 842: 5, 844: 8, 866: 4, 869: 4, 880: 6, 961: 8, 969: 8, 977: 8, 979: 8, 985: 5, 1001: 8, 1005: 6, 1009: 8, 1013: 3, 1017: 8, 1019: 2, 1020: 8, 1033: 7, 1034: 7, 1105: 6, 1217: 8, 1221: 5, 1223: 3, 1225: 7, 1233: 8, 1241: 3, 1249: 8, 1257: 6, 1259: 8, 1261: 7, 1263: 4, 1265: 8, 1267: 1, 1271: 8, 1280: 4, 1300: 8, 1322: 6, 1323: 4, 1328: 4, 1417: 8, 1601: 8, 1904: 7, 1906: 7, 1907: 7, 1912: 7, 1916: 7, 1917: 7, 1918: 7, 1919: 7, 1920: 7, 1930: 7, 2016: 8, 2024: 8},
	},
}
