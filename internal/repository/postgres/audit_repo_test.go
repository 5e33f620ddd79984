package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/iamasit07/soloq/internal/domain"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAuditRepo(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given an audit repo over a mocked database", t, func() {
		db, mock, err := sqlmock.New()
		So(err, ShouldBeNil)
		Reset(func() { _ = db.Close() })
		repo := NewAuditRepo(db)

		Convey("InsertGameSession passes every column", func() {
			rec := &domain.GameSessionRecord{
				ID: "0b1c", PlayerID: "u1", Specialty: "neuro",
				Correct: 3, Total: 5, DurationMS: 4200, CreatedAt: at,
			}
			mock.ExpectExec(`INSERT INTO game_sessions`).
				WithArgs("0b1c", "u1", "neuro", 3, 5, int64(4200), at).
				WillReturnResult(sqlmock.NewResult(0, 1))

			So(repo.InsertGameSession(ctx, rec), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("InsertRatingHistory passes every column", func() {
			rec := &domain.RatingHistoryRecord{
				ID: "9f2e", PlayerID: "u1", Specialty: "neuro",
				OldRating: 1200, Delta: 16, NewRating: 1216,
				Correct: 5, Total: 5, Score: 1, DurationMS: 1000, CreatedAt: at,
			}
			mock.ExpectExec(`INSERT INTO rating_history`).
				WithArgs("9f2e", "u1", "neuro", 1200, 16, 1216, 5, 5, 1.0, int64(1000), at).
				WillReturnResult(sqlmock.NewResult(0, 1))

			So(repo.InsertRatingHistory(ctx, rec), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("ListRatingHistory scans newest-first rows", func() {
			cols := []string{"id", "player_id", "specialty", "old_rating", "delta", "new_rating", "correct", "total", "score", "duration_ms", "created_at"}
			mock.ExpectQuery(`FROM rating_history\s+WHERE player_id = \$1`).
				WithArgs("u1", "neuro", 5).
				WillReturnRows(sqlmock.NewRows(cols).
					AddRow("h2", "u1", "neuro", 1216, 15, 1231, 5, 5, 1.0, int64(900), at).
					AddRow("h1", "u1", "neuro", 1200, 16, 1216, 5, 5, 1.0, int64(1000), at))

			history, err := repo.ListRatingHistory(ctx, "u1", "neuro", 5)
			So(err, ShouldBeNil)
			So(len(history), ShouldEqual, 2)
			So(history[0].ID, ShouldEqual, "h2")
			So(history[0].NewRating, ShouldEqual, 1231)
			So(history[1].OldRating, ShouldEqual, 1200)
		})

		Convey("CountGameSessions reads the count", func() {
			mock.ExpectQuery(`SELECT COUNT\(\*\) FROM game_sessions`).
				WithArgs("u1").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

			n, err := repo.CountGameSessions(ctx, "u1")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 7)
		})

		Convey("RatingLedger scans the aggregate", func() {
			mock.ExpectQuery(`ARRAY_AGG\(old_rating ORDER BY seq ASC\)`).
				WillReturnRows(sqlmock.NewRows([]string{"player_id", "specialty", "expected_rating", "sessions"}).
					AddRow("u1", "neuro", 1232, 2))

			ledger, err := repo.RatingLedger(ctx)
			So(err, ShouldBeNil)
			So(ledger, ShouldResemble, []domain.LedgerEntry{
				{PlayerID: "u1", Specialty: "neuro", ExpectedRating: 1232, Sessions: 2},
			})
		})
	})
}
