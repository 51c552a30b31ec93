package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/twinhealth/twin/internal/platform/db"
)

// demoPatient is one seed archetype with its visit history.
type demoPatient struct {
	fullName  string
	sex       string
	birthDate time.Time
	archetype string
	visits    []ClinicalSnapshot
}

func ptr[T any](v T) *T { return &v }

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// demoPatients are five synthetic archetypes, each with a 2023 baseline and a
// 2024 follow-up visit: a healthy lean male, an obese male with the full
// syndrome, a female whose syndrome resolves after lifestyle change, a male
// progressing into the syndrome, and a female with an ischemic heart disease
// history.
var demoPatients = []demoPatient{
	{
		fullName:  "Pedro Magro",
		sex:       "M",
		birthDate: date(1986, time.March, 12),
		archetype: "healthy",
		visits: []ClinicalSnapshot{
			{
				RecordedAt: date(2023, time.April, 10),
				HeightCm:   175, WeightKg: 65.0,
				WaistCm:    ptr(78.0),
				SystolicBp: ptr(112.0), DiastolicBp: ptr(72.0),
				TriglyceridesMgDl: ptr(85.0), HdlMgDl: ptr(52.0), LdlMgDl: ptr(110.0),
				TotalCholesterolMgDl: ptr(179.0), FastingGlucoseMgDl: ptr(82.0),
				AstUl: ptr(22.0), AltUl: ptr(24.0), GgtUl: ptr(18.0),
				PhysicalActivityLevel: ptr("high"), SmokingStatus: ptr(SmokingNever),
				AuditScore: ptr(3), BdiScore: ptr(4),
			},
			{
				RecordedAt: date(2024, time.April, 22),
				HeightCm:   175, WeightKg: 66.0,
				WaistCm:    ptr(79.0),
				SystolicBp: ptr(114.0), DiastolicBp: ptr(74.0),
				TriglyceridesMgDl: ptr(90.0), HdlMgDl: ptr(54.0), LdlMgDl: ptr(112.0),
				TotalCholesterolMgDl: ptr(184.0), FastingGlucoseMgDl: ptr(84.0),
				AstUl: ptr(21.0), AltUl: ptr(23.0), GgtUl: ptr(17.0),
				PhysicalActivityLevel: ptr("high"), SmokingStatus: ptr(SmokingNever),
				AuditScore: ptr(3), BdiScore: ptr(3),
			},
		},
	},
	{
		fullName:  "Roberto Obeso",
		sex:       "M",
		birthDate: date(1972, time.July, 25),
		archetype: "obese_ms",
		visits: []ClinicalSnapshot{
			{
				RecordedAt: date(2023, time.March, 15),
				HeightCm:   170, WeightKg: 105.0,
				WaistCm:    ptr(123.0),
				SystolicBp: ptr(148.0), DiastolicBp: ptr(94.0),
				TriglyceridesMgDl: ptr(210.0), HdlMgDl: ptr(34.0), LdlMgDl: ptr(145.0),
				TotalCholesterolMgDl: ptr(221.0), FastingGlucoseMgDl: ptr(130.0),
				AstUl: ptr(38.0), AltUl: ptr(52.0), GgtUl: ptr(58.0),
				PhysicalActivityLevel: ptr("inactive"), SmokingStatus: ptr(SmokingPrevious),
				AuditScore: ptr(12), BdiScore: ptr(14),
				IsOnAntihypertensive: true, IsOnAntidiabetic: true, IsOnLipidLowering: true,
				DiseaseCodes: []string{"E11", "I10"},
				BodyFatPct:   ptr(38.0), MusclePct: ptr(28.0), VisceralFatRating: ptr(18),
			},
			{
				RecordedAt: date(2024, time.May, 8),
				HeightCm:   170, WeightKg: 107.5,
				WaistCm:    ptr(125.0),
				SystolicBp: ptr(150.0), DiastolicBp: ptr(95.0),
				TriglyceridesMgDl: ptr(220.0), HdlMgDl: ptr(33.0), LdlMgDl: ptr(148.0),
				TotalCholesterolMgDl: ptr(225.0), FastingGlucoseMgDl: ptr(136.0),
				AstUl: ptr(40.0), AltUl: ptr(55.0), GgtUl: ptr(62.0),
				PhysicalActivityLevel: ptr("inactive"), SmokingStatus: ptr(SmokingPrevious),
				AuditScore: ptr(13), BdiScore: ptr(15),
				IsOnAntihypertensive: true, IsOnAntidiabetic: true, IsOnLipidLowering: true,
				DiseaseCodes: []string{"E11", "I10"},
				BodyFatPct:   ptr(39.0), MusclePct: ptr(27.0), VisceralFatRating: ptr(19),
			},
		},
	},
	{
		fullName:  "Ana Transformação",
		sex:       "F",
		birthDate: date(1977, time.November, 2),
		archetype: "improvement",
		visits: []ClinicalSnapshot{
			{
				RecordedAt: date(2023, time.May, 20),
				HeightCm:   162, WeightKg: 80.0,
				WaistCm:    ptr(88.0),
				SystolicBp: ptr(134.0), DiastolicBp: ptr(86.0),
				TriglyceridesMgDl: ptr(165.0), HdlMgDl: ptr(46.0), LdlMgDl: ptr(138.0),
				TotalCholesterolMgDl: ptr(217.0), FastingGlucoseMgDl: ptr(104.0),
				AstUl: ptr(28.0), AltUl: ptr(34.0), GgtUl: ptr(30.0),
				PhysicalActivityLevel: ptr("low"), SmokingStatus: ptr(SmokingNever),
				AuditScore: ptr(6), BdiScore: ptr(12),
			},
			{
				RecordedAt: date(2024, time.June, 11),
				HeightCm:   162, WeightKg: 71.0,
				WaistCm:    ptr(79.5),
				SystolicBp: ptr(122.0), DiastolicBp: ptr(78.0),
				TriglyceridesMgDl: ptr(130.0), HdlMgDl: ptr(53.0), LdlMgDl: ptr(125.0),
				TotalCholesterolMgDl: ptr(204.0), FastingGlucoseMgDl: ptr(94.0),
				AstUl: ptr(24.0), AltUl: ptr(26.0), GgtUl: ptr(22.0),
				PhysicalActivityLevel: ptr("high"), SmokingStatus: ptr(SmokingNever),
				AuditScore: ptr(4), BdiScore: ptr(5),
				BodyFatPct: ptr(30.0), MusclePct: ptr(32.0), VisceralFatRating: ptr(8),
			},
		},
	},
	{
		fullName:  "Carlos Moderado",
		sex:       "M",
		birthDate: date(1969, time.May, 18),
		archetype: "progression",
		visits: []ClinicalSnapshot{
			{
				RecordedAt: date(2023, time.June, 2),
				HeightCm:   176, WeightKg: 88.0,
				WaistCm:    ptr(95.0),
				SystolicBp: ptr(128.0), DiastolicBp: ptr(82.0),
				TriglyceridesMgDl: ptr(140.0), HdlMgDl: ptr(42.0), LdlMgDl: ptr(128.0),
				TotalCholesterolMgDl: ptr(198.0), FastingGlucoseMgDl: ptr(98.0),
				AstUl: ptr(27.0), AltUl: ptr(33.0), GgtUl: ptr(28.0),
				PhysicalActivityLevel: ptr("low"), SmokingStatus: ptr(SmokingCurrent),
				AuditScore: ptr(10), BdiScore: ptr(9),
			},
			{
				RecordedAt: date(2024, time.July, 15),
				HeightCm:   176, WeightKg: 92.0,
				WaistCm:    ptr(99.0),
				SystolicBp: ptr(128.0), DiastolicBp: ptr(84.0),
				TriglyceridesMgDl: ptr(158.0), HdlMgDl: ptr(41.0), LdlMgDl: ptr(135.0),
				TotalCholesterolMgDl: ptr(208.0), FastingGlucoseMgDl: ptr(103.0),
				AstUl: ptr(30.0), AltUl: ptr(38.0), GgtUl: ptr(34.0),
				PhysicalActivityLevel: ptr("inactive"), SmokingStatus: ptr(SmokingCurrent),
				AuditScore: ptr(11), BdiScore: ptr(10),
			},
		},
	},
	{
		fullName:  "Lucia Cardíaca",
		sex:       "F",
		birthDate: date(1961, time.September, 30),
		archetype: "cardiac",
		visits: []ClinicalSnapshot{
			{
				RecordedAt: date(2023, time.April, 28),
				HeightCm:   158, WeightKg: 72.0,
				WaistCm:    ptr(84.0),
				SystolicBp: ptr(142.0), DiastolicBp: ptr(88.0),
				TriglyceridesMgDl: ptr(155.0), HdlMgDl: ptr(48.0), LdlMgDl: ptr(150.0),
				TotalCholesterolMgDl: ptr(229.0), FastingGlucoseMgDl: ptr(108.0),
				AstUl: ptr(26.0), AltUl: ptr(30.0), GgtUl: ptr(27.0),
				PhysicalActivityLevel: ptr("low"), SmokingStatus: ptr(SmokingPrevious),
				AuditScore: ptr(5), BdiScore: ptr(8),
				IsOnAntihypertensive: true, IsOnLipidLowering: true,
				DiseaseCodes: []string{"I10", "I25"},
			},
			{
				RecordedAt: date(2024, time.May, 30),
				HeightCm:   158, WeightKg: 73.0,
				WaistCm:    ptr(85.0),
				SystolicBp: ptr(138.0), DiastolicBp: ptr(86.0),
				TriglyceridesMgDl: ptr(152.0), HdlMgDl: ptr(49.0), LdlMgDl: ptr(147.0),
				TotalCholesterolMgDl: ptr(226.0), FastingGlucoseMgDl: ptr(110.0),
				AstUl: ptr(26.0), AltUl: ptr(31.0), GgtUl: ptr(28.0),
				PhysicalActivityLevel: ptr("moderate"), SmokingStatus: ptr(SmokingPrevious),
				AuditScore: ptr(5), BdiScore: ptr(7),
				IsOnAntihypertensive: true, IsOnLipidLowering: true,
				DiseaseCodes: []string{"I10", "I25"},
			},
		},
	},
}

// Seed loads the five demo patients with their visit histories. It is a no-op
// when patients already exist. Each patient and its visits are written in one
// transaction. Returns the number of patients created.
func Seed(ctx context.Context, pool *pgxpool.Pool, svc *Service, logger zerolog.Logger) (int, error) {
	_, total, err := svc.List(ctx, 1, 0)
	if err != nil {
		return 0, fmt.Errorf("check existing patients: %w", err)
	}
	if total > 0 {
		logger.Info().Int("existing", total).Msg("patients already present, skipping seed")
		return 0, nil
	}

	created := 0
	for _, demo := range demoPatients {
		if err := seedOne(ctx, pool, svc, demo); err != nil {
			return created, fmt.Errorf("seed %s: %w", demo.fullName, err)
		}
		created++
		logger.Info().
			Str("patient", demo.fullName).
			Str("archetype", demo.archetype).
			Int("visits", len(demo.visits)).
			Msg("seeded demo patient")
	}
	return created, nil
}

func seedOne(ctx context.Context, pool *pgxpool.Pool, svc *Service, demo demoPatient) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	txCtx, tx, err := db.WithTx(db.WithConn(ctx, conn))
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	archetype := demo.archetype
	p := &Patient{
		FullName:  demo.fullName,
		Sex:       demo.sex,
		BirthDate: demo.birthDate,
		Archetype: &archetype,
	}
	if err := svc.Create(txCtx, p); err != nil {
		return err
	}

	for _, visit := range demo.visits {
		snap := visit
		snap.PatientID = p.ID
		if err := svc.CreateSnapshot(txCtx, &snap); err != nil {
			return fmt.Errorf("visit %s: %w", snap.RecordedAt.Format("2006-01-02"), err)
		}
	}

	return tx.Commit(ctx)
}
