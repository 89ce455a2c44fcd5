// Seed fills a local Postgres with sample production history so the
// forecasting endpoints have something to train on.
package main

import (
	"database/sql"
	"flag"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	_ "github.com/lib/pq"
)

var seasonalDip = map[int]float64{
	1:  0.95,
	2:  0.85,
	3:  1.10,
	9:  0.80,
	12: 0.90,
}

func main() {
	var (
		dsn     = flag.String("dsn", os.Getenv("PREDICCION_DATABASE_DSN"), "Postgres DSN")
		months  = flag.Int("months", 18, "number of months of history to generate")
		workers = flag.Int("workers", 8, "number of workers")
		base    = flag.Float64("base", 480, "baseline folios per worker per month")
		growth  = flag.Float64("growth", 4, "monthly growth in folios per worker")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("a Postgres DSN is required (-dsn or PREDICCION_DATABASE_DSN)")
	}

	db, err := sql.Open("postgres", *dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	const schema = `
                CREATE TABLE IF NOT EXISTS produccion_historica (
                        id             BIGSERIAL PRIMARY KEY,
                        trabajador_id  BIGINT NOT NULL,
                        anio           INT NOT NULL,
                        mes            INT NOT NULL,
                        folios         DOUBLE PRECISION NOT NULL,
                        justificacion  TEXT NOT NULL DEFAULT 'ninguna',
                        updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
                        UNIQUE (trabajador_id, anio, mes)
                )`
	if _, err := db.Exec(schema); err != nil {
		log.Fatalf("create table: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	// Walk backwards so the series ends at the current month.
	periods := make([][2]int, *months)
	for i := *months - 1; i >= 0; i-- {
		periods[i] = [2]int{year, month}
		month--
		if month == 0 {
			month = 12
			year--
		}
	}

	const insert = `
                INSERT INTO produccion_historica (trabajador_id, anio, mes, folios, justificacion)
                VALUES ($1, $2, $3, $4, $5)
                ON CONFLICT (trabajador_id, anio, mes) DO UPDATE
                SET folios = EXCLUDED.folios, justificacion = EXCLUDED.justificacion, updated_at = now()`

	inserted := 0
	for step, period := range periods {
		factor := 1.0
		if f, ok := seasonalDip[period[1]]; ok {
			factor = f
		}
		for w := 1; w <= *workers; w++ {
			justification := "ninguna"
			folios := (*base + *growth*float64(step)) * factor
			folios *= 0.85 + rng.Float64()*0.3 // per-worker spread

			// Roughly one worker-month in twenty is justified absence.
			if rng.Intn(20) == 0 {
				if rng.Intn(2) == 0 {
					justification = "vacaciones"
				} else {
					justification = "licencia"
				}
				folios = 0
			}

			if _, err := db.Exec(insert, w, period[0], period[1], math.Round(folios), justification); err != nil {
				log.Fatalf("insert worker %d %d-%02d: %v", w, period[0], period[1], err)
			}
			inserted++
		}
	}

	log.Printf("seeded %d rows across %d months for %d workers", inserted, *months, *workers)
}
