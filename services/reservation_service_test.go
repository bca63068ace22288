package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/services"
)

func TestCreateReservationAutoAssignsBestCombination(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewReservationService(db)
	customer := seedCustomer(t, db, "Dewi")
	seedTable(t, db, 1, 2, models.TableAvailable)
	seedTable(t, db, 2, 4, models.TableAvailable)
	seedTable(t, db, 3, 6, models.TableAvailable)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	reservation, err := svc.CreateReservation(services.CreateReservationInput{
		CustomerID: customer.ID,
		StartTime:  start,
		PartySize:  4,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ReservationPending, reservation.Status)
	assert.Equal(t, 120, reservation.Duration)
	assert.Equal(t, start.Add(2*time.Hour), reservation.EndTime)
	require.Len(t, reservation.Tables, 1)
	assert.Equal(t, 4, reservation.Tables[0].Capacity)

	// Reservasi pending adalah soft hold: meja belum berubah status
	var table models.Table
	require.NoError(t, db.First(&table, reservation.Tables[0].ID).Error)
	assert.Equal(t, models.TableAvailable, table.Status)
}

func TestCreateReservationValidatesBounds(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewReservationService(db)
	customer := seedCustomer(t, db, "Agus")
	seedTable(t, db, 1, 4, models.TableAvailable)

	start := time.Now().Add(24 * time.Hour)
	var validationErr *services.ValidationError

	_, err := svc.CreateReservation(services.CreateReservationInput{
		CustomerID: customer.ID, StartTime: start, PartySize: 0,
	})
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.CreateReservation(services.CreateReservationInput{
		CustomerID: customer.ID, StartTime: start, PartySize: 51,
	})
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.CreateReservation(services.CreateReservationInput{
		CustomerID: customer.ID, StartTime: start, PartySize: 2, Duration: 10,
	})
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.CreateReservation(services.CreateReservationInput{
		CustomerID: customer.ID, StartTime: time.Now().Add(-time.Hour), PartySize: 2,
	})
	assert.ErrorAs(t, err, &validationErr)
}

func TestCreateReservationExplicitTablesChecksCapacity(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewReservationService(db)
	customer := seedCustomer(t, db, "Sari")
	table := seedTable(t, db, 1, 2, models.TableAvailable)

	_, err := svc.CreateReservation(services.CreateReservationInput{
		CustomerID: customer.ID,
		StartTime:  time.Now().Add(24 * time.Hour),
		PartySize:  6,
		TableIDs:   []uint{table.ID},
	})

	var capacityErr *services.CapacityError
	require.ErrorAs(t, err, &capacityErr)
	assert.Equal(t, 6, capacityErr.Required)
	assert.Equal(t, 2, capacityErr.Provided)
}

func TestCreateReservationNoAvailability(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewReservationService(db)
	customer := seedCustomer(t, db, "Budi")
	seedTable(t, db, 1, 2, models.TableAvailable)

	_, err := svc.CreateReservation(services.CreateReservationInput{
		CustomerID: customer.ID,
		StartTime:  time.Now().Add(24 * time.Hour),
		PartySize:  10,
	})

	assert.True(t, errors.Is(err, services.ErrNoAvailability))
}

func TestConfirmReservationClaimsTablesAndLoserFails(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewReservationService(db)
	customer := seedCustomer(t, db, "Dewi")
	table := seedTable(t, db, 1, 4, models.TableAvailable)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	// Dua reservasi pending untuk window yang sama boleh hidup berdampingan
	first, err := svc.CreateReservation(services.CreateReservationInput{
		CustomerID: customer.ID, StartTime: start, PartySize: 4, TableIDs: []uint{table.ID},
	})
	require.NoError(t, err)
	second, err := svc.CreateReservation(services.CreateReservationInput{
		CustomerID: customer.ID, StartTime: start.Add(time.Hour), PartySize: 4, TableIDs: []uint{table.ID},
	})
	require.NoError(t, err)

	confirmed, err := svc.ConfirmReservation(first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, confirmed.Status)

	var claimed models.Table
	require.NoError(t, db.First(&claimed, table.ID).Error)
	assert.Equal(t, models.TableReserved, claimed.Status)

	// Confirm kedua kalah race: window-nya overlap dengan yang sudah confirmed
	_, err = svc.ConfirmReservation(second.ID)
	var conflictErr *services.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, table.ID, conflictErr.Conflicts[0].Table.ID)

	// Yang kalah tetap pending, tidak rusak
	var loser models.Reservation
	require.NoError(t, db.First(&loser, second.ID).Error)
	assert.Equal(t, models.ReservationPending, loser.Status)
}

func TestCheckInOnlyWithinPolicyWindow(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewReservationService(db)
	customer := seedCustomer(t, db, "Agus")
	table := seedTable(t, db, 1, 4, models.TableAvailable)

	var stateErr *services.InvalidStateError

	// Terlalu awal: mulai 2 jam lagi, window baru terbuka 15 menit sebelum
	early := seedReservation(t, db, customer, []models.Table{table},
		time.Now().Add(2*time.Hour), 120, models.ReservationConfirmed)
	_, err := svc.CheckIn(early.ID)
	assert.ErrorAs(t, err, &stateErr)

	// Terlambat: mulai 2 jam lalu, window tertutup 30 menit setelah mulai
	late := seedReservation(t, db, customer, []models.Table{table},
		time.Now().Add(-2*time.Hour), 120, models.ReservationConfirmed)
	_, err = svc.CheckIn(late.ID)
	assert.ErrorAs(t, err, &stateErr)

	// Dalam window: mulai 10 menit lagi
	onTime := seedReservation(t, db, customer, []models.Table{table},
		time.Now().Add(10*time.Minute), 120, models.ReservationConfirmed)
	checkedIn, err := svc.CheckIn(onTime.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCheckedIn, checkedIn.Status)

	var occupied models.Table
	require.NoError(t, db.First(&occupied, table.ID).Error)
	assert.Equal(t, models.TableOccupied, occupied.Status)
}

func TestCompleteReservationSendsTablesToCleaning(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewReservationService(db)
	customer := seedCustomer(t, db, "Sari")
	table := seedTable(t, db, 1, 4, models.TableOccupied)

	reservation := seedReservation(t, db, customer, []models.Table{table},
		time.Now().Add(-time.Hour), 120, models.ReservationCheckedIn)

	completed, err := svc.CompleteReservation(reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCompleted, completed.Status)

	var cleaned models.Table
	require.NoError(t, db.First(&cleaned, table.ID).Error)
	assert.Equal(t, models.TableCleaning, cleaned.Status)
}

func TestCancelReleasesOnlyUnclaimedTables(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewReservationService(db)
	customer := seedCustomer(t, db, "Budi")
	table := seedTable(t, db, 1, 4, models.TableReserved)

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	first := seedReservation(t, db, customer, []models.Table{table}, base, 120, models.ReservationConfirmed)
	second := seedReservation(t, db, customer, []models.Table{table}, base.Add(3*time.Hour), 120, models.ReservationConfirmed)

	// Meja masih dipegang reservasi kedua: status tidak boleh berubah
	_, err := svc.CancelReservation(first.ID)
	require.NoError(t, err)
	var held models.Table
	require.NoError(t, db.First(&held, table.ID).Error)
	assert.Equal(t, models.TableReserved, held.Status)

	// Klaim terakhir lepas: meja kembali available
	_, err = svc.CancelReservation(second.ID)
	require.NoError(t, err)
	var released models.Table
	require.NoError(t, db.First(&released, table.ID).Error)
	assert.Equal(t, models.TableAvailable, released.Status)
}

func TestCancelTerminalReservationFails(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewReservationService(db)
	customer := seedCustomer(t, db, "Dewi")
	table := seedTable(t, db, 1, 4, models.TableAvailable)

	reservation := seedReservation(t, db, customer, []models.Table{table},
		time.Now().Add(24*time.Hour), 120, models.ReservationCancelled)

	_, err := svc.CancelReservation(reservation.ID)
	var transitionErr *services.InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestMarkNoShowRequiresStartTimePassed(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewReservationService(db)
	customer := seedCustomer(t, db, "Agus")
	table := seedTable(t, db, 1, 4, models.TableReserved)

	future := seedReservation(t, db, customer, []models.Table{table},
		time.Now().Add(time.Hour), 120, models.ReservationConfirmed)
	_, err := svc.MarkNoShow(future.ID)
	var stateErr *services.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)

	past := seedReservation(t, db, customer, []models.Table{table},
		time.Now().Add(-time.Hour), 120, models.ReservationConfirmed)
	marked, err := svc.MarkNoShow(past.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationNoShow, marked.Status)
}

func TestUpdateReservationReplacesPendingWholesale(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewReservationService(db)
	customer := seedCustomer(t, db, "Dewi")
	first := seedTable(t, db, 1, 4, models.TableAvailable)
	second := seedTable(t, db, 2, 2, models.TableAvailable)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	created, err := svc.CreateReservation(services.CreateReservationInput{
		CustomerID: customer.ID,
		StartTime:  start,
		PartySize:  4,
		TableIDs:   []uint{first.ID},
		Notes:      "Dekat jendela",
	})
	require.NoError(t, err)

	// Window baru masih overlap dengan window lama di meja yang sama:
	// reservasi tidak bentrok dengan dirinya sendiri saat re-check
	updated, err := svc.UpdateReservation(created.ID, services.CreateReservationInput{
		CustomerID: customer.ID,
		StartTime:  start.Add(30 * time.Minute),
		Duration:   90,
		PartySize:  6,
		TableIDs:   []uint{first.ID, second.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, 6, updated.PartySize)
	assert.Equal(t, 90, updated.Duration)
	require.Len(t, updated.Tables, 2)
	assert.ElementsMatch(t, []uint{first.ID, second.ID},
		[]uint{updated.Tables[0].ID, updated.Tables[1].ID})

	// Semua field diganti utuh: notes kosong berarti notes dihapus
	assert.Empty(t, updated.Notes)
}

func TestUpdateReservationOnlyWhilePending(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewReservationService(db)
	customer := seedCustomer(t, db, "Agus")
	table := seedTable(t, db, 1, 4, models.TableReserved)

	reservation := seedReservation(t, db, customer, []models.Table{table},
		time.Now().Add(24*time.Hour), 120, models.ReservationConfirmed)

	_, err := svc.UpdateReservation(reservation.ID, services.CreateReservationInput{
		CustomerID: customer.ID,
		StartTime:  time.Now().Add(25 * time.Hour),
		Duration:   120,
		PartySize:  4,
		TableIDs:   []uint{table.ID},
	})

	var stateErr *services.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestUpdateReservationConflictLeavesTableSetIntact(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewReservationService(db)
	customer := seedCustomer(t, db, "Sari")
	free := seedTable(t, db, 1, 4, models.TableAvailable)
	taken := seedTable(t, db, 2, 4, models.TableReserved)

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	seedReservation(t, db, customer, []models.Table{taken}, base, 120, models.ReservationConfirmed)

	pending, err := svc.CreateReservation(services.CreateReservationInput{
		CustomerID: customer.ID, StartTime: base, PartySize: 4, TableIDs: []uint{free.ID},
	})
	require.NoError(t, err)

	// Pindah ke meja yang sudah dipegang reservasi confirmed lain
	_, err = svc.UpdateReservation(pending.ID, services.CreateReservationInput{
		CustomerID: customer.ID, StartTime: base, Duration: 120, PartySize: 4,
		TableIDs: []uint{taken.ID},
	})
	var conflictErr *services.ConflictError
	require.ErrorAs(t, err, &conflictErr)

	// Gagal di tengah tidak meninggalkan separuh perubahan
	kept, err := svc.GetReservation(pending.ID)
	require.NoError(t, err)
	require.Len(t, kept.Tables, 1)
	assert.Equal(t, free.ID, kept.Tables[0].ID)
}

func TestFindAvailableTablesSkipsConflictedAndMaintenance(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewReservationService(db)
	customer := seedCustomer(t, db, "Sari")
	busy := seedTable(t, db, 1, 4, models.TableReserved)
	seedTable(t, db, 2, 4, models.TableAvailable)
	seedTable(t, db, 3, 4, models.TableMaintenance)

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	seedReservation(t, db, customer, []models.Table{busy}, base, 120, models.ReservationConfirmed)

	combos, err := svc.FindAvailableTables(base, 120, 4, 0)
	require.NoError(t, err)
	require.Len(t, combos, 1)
	require.Len(t, combos[0], 1)
	assert.Equal(t, 2, combos[0][0].TableNumber)

	// Setelah window bergeser melewati reservasi, meja sibuk ikut tersedia
	// dan kembali jadi kandidat terbaik (nomor meja terkecil)
	combos, err = svc.FindAvailableTables(base.Add(2*time.Hour), 120, 4, 0)
	require.NoError(t, err)
	require.NotEmpty(t, combos)
	assert.Equal(t, 1, combos[0][0].TableNumber)
}
