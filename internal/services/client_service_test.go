package services

import (
	"testing"
	"time"

	"qr_review_backend/internal/models"
	"qr_review_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClientRepo struct {
	nextID  int64
	clients map[int64]*models.Client
}

var _ repositories.ClientRepository = (*fakeClientRepo)(nil)

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{nextID: 1, clients: map[int64]*models.Client{}}
}

func (f *fakeClientRepo) CreateClient(_ repositories.SQLExecutor, client *models.Client) (int64, error) {
	client.ID = f.nextID
	f.nextID++
	stored := *client
	f.clients[client.ID] = &stored
	return client.ID, nil
}

func (f *fakeClientRepo) GetClientByID(id int64) (*models.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeClientRepo) GetClients(page, pageSize int, _ *string) ([]models.Client, int, error) {
	out := []models.Client{}
	for _, c := range f.clients {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakeClientRepo) UpdateClient(_ repositories.SQLExecutor, client *models.Client) error {
	if _, ok := f.clients[client.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *client
	f.clients[client.ID] = &stored
	return nil
}

func (f *fakeClientRepo) DeleteClient(_ repositories.SQLExecutor, id int64) error {
	if _, ok := f.clients[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.clients, id)
	return nil
}

type fakeTypeRepo struct {
	types map[int64]*models.ClientType
}

var _ repositories.ClientTypeRepository = (*fakeTypeRepo)(nil)

func newFakeTypeRepo() *fakeTypeRepo {
	return &fakeTypeRepo{types: map[int64]*models.ClientType{}}
}

func (f *fakeTypeRepo) CreateClientType(_ repositories.SQLExecutor, ct *models.ClientType) (int64, error) {
	f.types[ct.ID] = ct
	return ct.ID, nil
}

func (f *fakeTypeRepo) GetClientTypeByID(id int64) (*models.ClientType, error) {
	ct, ok := f.types[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *ct
	return &copied, nil
}

func (f *fakeTypeRepo) GetClientTypes() ([]models.ClientType, error) {
	out := []models.ClientType{}
	for _, ct := range f.types {
		out = append(out, *ct)
	}
	return out, nil
}

func (f *fakeTypeRepo) UpdateClientType(_ repositories.SQLExecutor, ct *models.ClientType) error {
	if _, ok := f.types[ct.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *ct
	f.types[ct.ID] = &stored
	return nil
}

func (f *fakeTypeRepo) DeleteClientType(_ repositories.SQLExecutor, id int64) error {
	if _, ok := f.types[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.types, id)
	return nil
}

type fakeHistoryRepo struct {
	history  []models.ServiceHistoryRecord
	payments []models.PaymentRecord
}

var _ repositories.HistoryRepository = (*fakeHistoryRepo)(nil)

func (f *fakeHistoryRepo) CreateServiceHistory(_ repositories.SQLExecutor, r *models.ServiceHistoryRecord) (int64, error) {
	r.ID = int64(len(f.history) + 1)
	f.history = append(f.history, *r)
	return r.ID, nil
}

func (f *fakeHistoryRepo) GetServiceHistory(clientID int64) ([]models.ServiceHistoryRecord, error) {
	out := []models.ServiceHistoryRecord{}
	for _, r := range f.history {
		if r.ClientID == clientID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) CreatePayment(_ repositories.SQLExecutor, r *models.PaymentRecord) (int64, error) {
	r.ID = int64(len(f.payments) + 1)
	f.payments = append(f.payments, *r)
	return r.ID, nil
}

func (f *fakeHistoryRepo) GetPayments(clientID int64) ([]models.PaymentRecord, error) {
	out := []models.PaymentRecord{}
	for _, r := range f.payments {
		if r.ClientID == clientID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestClientService() (*clientService, *fakeClientRepo, *fakeTypeRepo, *fakeHistoryRepo) {
	clientRepo := newFakeClientRepo()
	typeRepo := newFakeTypeRepo()
	historyRepo := &fakeHistoryRepo{}
	svc := &clientService{
		clientRepo:  clientRepo,
		typeRepo:    typeRepo,
		historyRepo: historyRepo,
		now:         time.Now,
	}
	return svc, clientRepo, typeRepo, historyRepo
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func int64Ptr(i int64) *int64 { return &i }

func TestCreateClientCopiesTypeDefaultsOneShot(t *testing.T) {
	svc, _, typeRepo, _ := newTestClientService()
	tone := "friendly"
	typeRepo.types[7] = &models.ClientType{
		ID:               7,
		TypeName:         "Cafe",
		Context:          []string{"cozy", "family run"},
		TrustSignals:     []string{"since 2010"},
		SeoKeywords:      []string{"best cafe"},
		ProductsServices: []string{"coffee", "snacks"},
		Tone:             &tone,
		Verbosity:        4,
	}

	client, err := svc.CreateClient(CreateClientRequest{
		ShopName: "Tea Corner",
		TypeID:   int64Ptr(7),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"cozy", "family run"}, client.Context)
	assert.Equal(t, []string{"since 2010"}, client.TrustSignals)
	assert.Equal(t, 4, client.Verbosity)
	require.NotNil(t, client.Tone)
	assert.Equal(t, "friendly", *client.Tone)

	// Editing the type afterwards must not leak into the client.
	typeRepo.types[7].Context = []string{"changed"}
	reloaded, err := svc.GetClientByID(client.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"cozy", "family run"}, reloaded.Context)
}

func TestCreateClientRequestValuesWinOverTypeDefaults(t *testing.T) {
	svc, _, typeRepo, _ := newTestClientService()
	typeRepo.types[7] = &models.ClientType{
		ID:        7,
		TypeName:  "Cafe",
		Context:   []string{"default"},
		Verbosity: 4,
	}

	client, err := svc.CreateClient(CreateClientRequest{
		ShopName:  "Tea Corner",
		TypeID:    int64Ptr(7),
		Context:   []string{"own context"},
		Verbosity: intPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"own context"}, client.Context)
	assert.Equal(t, 2, client.Verbosity)
}

func TestCreateClientValidation(t *testing.T) {
	svc, _, _, _ := newTestClientService()

	_, err := svc.CreateClient(CreateClientRequest{ShopName: "   "})
	assert.ErrorIs(t, err, ErrClientValidation)

	_, err = svc.CreateClient(CreateClientRequest{ShopName: "Shop", DurationDays: intPtr(0)})
	assert.ErrorIs(t, err, ErrClientValidation)

	_, err = svc.CreateClient(CreateClientRequest{ShopName: "Shop", Verbosity: intPtr(9)})
	assert.ErrorIs(t, err, ErrClientValidation)

	_, err = svc.CreateClient(CreateClientRequest{ShopName: "Shop", StartDate: strPtr("01-02-2024")})
	assert.ErrorIs(t, err, ErrDateFormat)

	_, err = svc.CreateClient(CreateClientRequest{ShopName: "Shop", TypeID: int64Ptr(404)})
	assert.ErrorIs(t, err, ErrClientValidation)
}

func TestUpdateClientAppendsHistoryOnPeriodChange(t *testing.T) {
	svc, _, _, historyRepo := newTestClientService()

	client, err := svc.CreateClient(CreateClientRequest{
		ShopName:     "Tea Corner",
		StartDate:    strPtr("2024-01-01"),
		DurationDays: intPtr(7),
	})
	require.NoError(t, err)
	require.Empty(t, historyRepo.history, "creation never writes history")

	// Editing unrelated fields writes no history.
	_, err = svc.UpdateClient(client.ID, UpdateClientRequest{ShopName: strPtr("Tea Corner 2")})
	require.NoError(t, err)
	assert.Empty(t, historyRepo.history)

	// Moving the period appends exactly one record with old and new values.
	_, err = svc.UpdateClient(client.ID, UpdateClientRequest{DurationDays: intPtr(30)})
	require.NoError(t, err)
	require.Len(t, historyRepo.history, 1)

	rec := historyRepo.history[0]
	assert.Equal(t, client.ID, rec.ClientID)
	require.NotNil(t, rec.OldEndDate)
	require.NotNil(t, rec.NewEndDate)
	assert.Equal(t, rec.OldStartDate.AddDate(0, 0, 7), *rec.OldEndDate)
	assert.Equal(t, rec.NewStartDate.AddDate(0, 0, 30), *rec.NewEndDate)
}

func TestUpdateClientIsImmutablePatch(t *testing.T) {
	svc, clientRepo, _, _ := newTestClientService()

	client, err := svc.CreateClient(CreateClientRequest{ShopName: "Tea Corner"})
	require.NoError(t, err)

	// A failing patch must leave the stored record untouched.
	_, err = svc.UpdateClient(client.ID, UpdateClientRequest{
		ShopName:  strPtr("Broken"),
		Verbosity: intPtr(99),
	})
	assert.ErrorIs(t, err, ErrClientValidation)
	assert.Equal(t, "Tea Corner", clientRepo.clients[client.ID].ShopName)
}

func TestAddPaymentSnapshotsPeriod(t *testing.T) {
	svc, _, _, historyRepo := newTestClientService()

	client, err := svc.CreateClient(CreateClientRequest{
		ShopName:     "Tea Corner",
		StartDate:    strPtr("2024-01-01"),
		DurationDays: intPtr(30),
	})
	require.NoError(t, err)

	amount := 4999.0
	record, err := svc.AddPayment(client.ID, AddPaymentRequest{
		Amount:        &amount,
		PaymentMethod: strPtr("UPI"),
	})
	require.NoError(t, err)
	require.Len(t, historyRepo.payments, 1)
	require.NotNil(t, record.ServiceStart)
	require.NotNil(t, record.ServiceEnd)
	assert.Equal(t, record.ServiceStart.AddDate(0, 0, 30), *record.ServiceEnd)

	_, err = svc.AddPayment(client.ID, AddPaymentRequest{})
	assert.ErrorIs(t, err, ErrClientValidation)
}

func TestGetPublicClientGating(t *testing.T) {
	svc, clientRepo, _, _ := newTestClientService()

	start := istDate(2024, time.January, 1)
	duration := 7
	clientRepo.clients[1] = &models.Client{
		ID:               1,
		ShopName:         "Tea Corner",
		Area:             []string{"MG Road"},
		ProductsServices: []string{"chai"},
		GmbLink:          strPtr("https://g.page/tea"),
		StartDate:        &start,
		DurationDays:     &duration,
		IsActive:         true,
	}

	svc.now = func() time.Time { return istDate(2024, time.January, 5) }
	public, err := svc.GetPublicClient(1)
	require.NoError(t, err)
	assert.Equal(t, "Tea Corner", public.ShopName)
	assert.Equal(t, []string{"chai"}, public.ProductsServices)

	svc.now = func() time.Time { return istDate(2024, time.January, 20) }
	_, err = svc.GetPublicClient(1)
	assert.ErrorIs(t, err, ErrServiceExpired)

	svc.now = func() time.Time { return istDate(2023, time.December, 20) }
	_, err = svc.GetPublicClient(1)
	assert.ErrorIs(t, err, ErrServiceNotStarted)

	clientRepo.clients[1].IsActive = false
	_, err = svc.GetPublicClient(1)
	assert.ErrorIs(t, err, ErrServiceInactive)

	_, err = svc.GetPublicClient(404)
	assert.ErrorIs(t, err, ErrClientNotFound)
}
