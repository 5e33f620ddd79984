package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/iamasit07/soloq/internal/domain"
	"github.com/lib/pq"
	. "github.com/smartystreets/goconvey/convey"
)

var playerColumns = []string{"id", "email", "global_rating", "ratings_by_specialty", "created_at"}

func TestPlayerRepo(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a player repo over a mocked database", t, func() {
		db, mock, err := sqlmock.New()
		So(err, ShouldBeNil)
		Reset(func() { _ = db.Close() })
		repo := NewPlayerRepo(db)

		Convey("GetByID decodes the JSONB ratings", func() {
			mock.ExpectQuery(`SELECT .* FROM players WHERE id = \$1`).
				WithArgs("u1").
				WillReturnRows(sqlmock.NewRows(playerColumns).
					AddRow("u1", "a@example.com", int64(1250), []byte(`{"neuro":1300}`), created))

			p, err := repo.GetByID(ctx, "u1")
			So(err, ShouldBeNil)
			So(p.ID, ShouldEqual, "u1")
			So(p.Email, ShouldEqual, "a@example.com")
			So(*p.GlobalRating, ShouldEqual, 1250)
			So(p.RatingsBySpecialty, ShouldResemble, map[string]int{"neuro": 1300})
			So(p.CreatedAt.Equal(created), ShouldBeTrue)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("GetByID keeps a NULL global rating absent", func() {
			mock.ExpectQuery(`FROM players WHERE id = \$1`).
				WithArgs("u1").
				WillReturnRows(sqlmock.NewRows(playerColumns).
					AddRow("u1", "", nil, []byte(`{}`), created))

			p, err := repo.GetByID(ctx, "u1")
			So(err, ShouldBeNil)
			So(p.GlobalRating, ShouldBeNil)
			So(p.CurrentRating("neuro"), ShouldEqual, domain.DefaultRating)
		})

		Convey("GetByID returns nil for a missing row", func() {
			mock.ExpectQuery(`FROM players WHERE id = \$1`).
				WithArgs("ghost").
				WillReturnRows(sqlmock.NewRows(playerColumns))

			p, err := repo.GetByID(ctx, "ghost")
			So(err, ShouldBeNil)
			So(p, ShouldBeNil)
		})

		Convey("GetByID wraps driver failures", func() {
			boom := errors.New("connection reset")
			mock.ExpectQuery(`FROM players WHERE id = \$1`).WillReturnError(boom)

			_, err := repo.GetByID(ctx, "u1")
			So(errors.Is(err, boom), ShouldBeTrue)
		})

		Convey("GetByEmail picks the oldest row and skips blank emails", func() {
			p, err := repo.GetByEmail(ctx, "")
			So(err, ShouldBeNil)
			So(p, ShouldBeNil)

			mock.ExpectQuery(`FROM players WHERE email = \$1 ORDER BY created_at ASC`).
				WithArgs("a@example.com").
				WillReturnRows(sqlmock.NewRows(playerColumns).
					AddRow("legacy", "a@example.com", int64(1400), []byte(`{"neuro":1400}`), created))

			p, err = repo.GetByEmail(ctx, "a@example.com")
			So(err, ShouldBeNil)
			So(p.ID, ShouldEqual, "legacy")
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("Insert writes NULL for a blank email", func() {
			mock.ExpectExec(`INSERT INTO players`).
				WithArgs("u1", nil, 1200, "{}").
				WillReturnResult(sqlmock.NewResult(0, 1))

			So(repo.Insert(ctx, domain.NewPlayerRating("u1", "")), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("Insert maps a unique violation to ErrDuplicate", func() {
			mock.ExpectExec(`INSERT INTO players`).
				WillReturnError(&pq.Error{Code: "23505", Constraint: "players_pkey"})

			err := repo.Insert(ctx, domain.NewPlayerRating("u1", "a@example.com"))
			So(errors.Is(err, domain.ErrDuplicate), ShouldBeTrue)
		})

		Convey("UpdateRatings writes both columns", func() {
			mock.ExpectExec(`UPDATE players SET global_rating = \$2, ratings_by_specialty = \$3::jsonb WHERE id = \$1`).
				WithArgs("u1", 1216, `{"cardio":1216,"neuro":1300}`).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := repo.UpdateRatings(ctx, "u1", domain.RatingUpdate{
				GlobalRating:       domain.Int(1216),
				RatingsBySpecialty: map[string]int{"neuro": 1300, "cardio": 1216},
			})
			So(err, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("UpdateRatings can leave the global rating alone", func() {
			mock.ExpectExec(`UPDATE players SET ratings_by_specialty = \$2::jsonb WHERE id = \$1`).
				WithArgs("u1", `{"neuro":1216}`).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := repo.UpdateRatings(ctx, "u1", domain.RatingUpdate{RatingsBySpecialty: map[string]int{"neuro": 1216}})
			So(err, ShouldBeNil)
		})

		Convey("UpdateRatings reports a missing row", func() {
			mock.ExpectExec(`UPDATE players SET global_rating = \$2 WHERE id = \$1`).
				WillReturnResult(sqlmock.NewResult(0, 0))

			err := repo.UpdateRatings(ctx, "ghost", domain.RatingUpdate{GlobalRating: domain.Int(1)})
			So(err, ShouldEqual, domain.ErrNotFound)
		})

		Convey("SetSpecialtyRating writes one key in place", func() {
			mock.ExpectExec(`jsonb_set\(COALESCE\(ratings_by_specialty, '\{\}'::jsonb\), ARRAY\[\$2::text\], to_jsonb\(\$3::int\)\)`).
				WithArgs("u1", "neuro", 1232).
				WillReturnResult(sqlmock.NewResult(0, 1))

			So(repo.SetSpecialtyRating(ctx, "u1", "neuro", 1232), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("SetSpecialtyRating reports a missing row", func() {
			mock.ExpectExec(`jsonb_set`).
				WillReturnResult(sqlmock.NewResult(0, 0))

			So(repo.SetSpecialtyRating(ctx, "ghost", "neuro", 1), ShouldEqual, domain.ErrNotFound)
		})

		Convey("An empty update touches nothing", func() {
			So(repo.UpdateRatings(ctx, "u1", domain.RatingUpdate{}), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("Leaderboard scans ranked rows", func() {
			mock.ExpectQuery(`ROW_NUMBER\(\) OVER`).
				WithArgs("neuro", 2).
				WillReturnRows(sqlmock.NewRows([]string{"pos", "id", "email", "rating"}).
					AddRow(1, "b", "b@example.com", 1400).
					AddRow(2, "a", "", 1300))

			rows, err := repo.Leaderboard(ctx, "neuro", 2)
			So(err, ShouldBeNil)
			So(rows, ShouldResemble, []domain.LeaderboardEntry{
				{Pos: 1, PlayerID: "b", Email: "b@example.com", Rating: 1400},
				{Pos: 2, PlayerID: "a", Rating: 1300},
			})
		})

		Convey("List pages players", func() {
			mock.ExpectQuery(`FROM players ORDER BY created_at ASC, id ASC LIMIT \$1 OFFSET \$2`).
				WithArgs(2, 0).
				WillReturnRows(sqlmock.NewRows(playerColumns).
					AddRow("a", "", int64(1200), []byte(`{}`), created).
					AddRow("b", "", int64(1300), []byte(`{"neuro":1300}`), created))

			players, err := repo.List(ctx, 0, 2)
			So(err, ShouldBeNil)
			So(len(players), ShouldEqual, 2)
			So(players[1].RatingsBySpecialty["neuro"], ShouldEqual, 1300)
		})

		Convey("Corrupt JSONB is an error", func() {
			mock.ExpectQuery(`FROM players WHERE id = \$1`).
				WillReturnRows(sqlmock.NewRows(playerColumns).
					AddRow("u1", "", int64(1200), []byte(`not json`), created))

			_, err := repo.GetByID(ctx, "u1")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRunMigrations(t *testing.T) {
	Convey("Given a mocked database", t, func() {
		db, mock, err := sqlmock.New()
		So(err, ShouldBeNil)
		defer db.Close()

		Convey("The embedded schema is executed", func() {
			So(schema, ShouldContainSubstring, "CREATE TABLE IF NOT EXISTS rating_history")
			mock.ExpectExec(`CREATE TABLE IF NOT EXISTS players`).WillReturnResult(sqlmock.NewResult(0, 0))
			So(RunMigrations(context.Background(), db), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}
