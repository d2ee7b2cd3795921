package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/medscan/apiserver/internal/store"
	"github.com/medscan/apiserver/types"
)

// In-memory repository fakes mirroring the store package's contracts,
// including its sentinel errors and unique constraints.

type fakeAccounts struct {
	mu     sync.Mutex
	nextID int
	items  map[int]types.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{items: map[int]types.Account{}}
}

func (f *fakeAccounts) GetByID(_ context.Context, id int) (types.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.items[id]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return account, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (types.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.items {
		if account.Email == email {
			return account, nil
		}
	}
	return types.Account{}, store.ErrNotFound
}

func (f *fakeAccounts) Create(_ context.Context, account types.Account) (types.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.Email == account.Email {
			return types.Account{}, store.ErrDuplicateEmail
		}
	}
	f.nextID++
	account.ID = f.nextID
	f.items[account.ID] = account
	return account, nil
}

func (f *fakeAccounts) UpdateRole(_ context.Context, id int, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.items[id]
	if !ok {
		return store.ErrNotFound
	}
	account.Role = role
	f.items[id] = account
	return nil
}

func (f *fakeAccounts) SetSelectedDoctor(_ context.Context, accountID, profileID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.items[accountID]
	if !ok {
		return store.ErrNotFound
	}
	account.SelectedDoctorID = &profileID
	f.items[accountID] = account
	return nil
}

func (f *fakeAccounts) List(_ context.Context, offset, limit int) ([]types.Account, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var page []types.Account
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(page) == limit {
			break
		}
		page = append(page, f.items[id])
	}
	return page, len(f.items), nil
}

func (f *fakeAccounts) ExistsByRole(_ context.Context, role string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.items {
		if account.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccounts) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeCounters struct {
	mu       sync.Mutex
	seq      int64
	failures int
}

func (f *fakeCounters) Next(_ context.Context, _ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return 0, errors.New("counter unavailable")
	}
	f.seq++
	return f.seq, nil
}

type fakeProfiles struct {
	mu       sync.Mutex
	nextID   int
	items    map[int]types.DoctorProfile
	accounts *fakeAccounts
}

func newFakeProfiles(accounts *fakeAccounts) *fakeProfiles {
	return &fakeProfiles{items: map[int]types.DoctorProfile{}, accounts: accounts}
}

func (f *fakeProfiles) Create(_ context.Context, profile types.DoctorProfile) (types.DoctorProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.AccountID == profile.AccountID {
			return types.DoctorProfile{}, store.ErrProfileExists
		}
		if existing.MedicalLicense == profile.MedicalLicense {
			return types.DoctorProfile{}, store.ErrDuplicateLicense
		}
	}
	f.nextID++
	profile.ID = f.nextID
	f.items[profile.ID] = profile
	return profile, nil
}

func (f *fakeProfiles) GetByID(_ context.Context, id int) (types.DoctorProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.items[id]
	if !ok {
		return types.DoctorProfile{}, store.ErrNotFound
	}
	return profile, nil
}

func (f *fakeProfiles) GetByAccount(_ context.Context, accountID int) (types.DoctorProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, profile := range f.items {
		if profile.AccountID == accountID {
			return profile, nil
		}
	}
	return types.DoctorProfile{}, store.ErrNotFound
}

func (f *fakeProfiles) SetApproved(_ context.Context, id int, approved bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.items[id]
	if !ok {
		return store.ErrNotFound
	}
	profile.Approved = approved
	f.items[id] = profile
	return nil
}

func (f *fakeProfiles) Update(_ context.Context, profile types.DoctorProfile) (types.DoctorProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[profile.ID]; !ok {
		return types.DoctorProfile{}, store.ErrNotFound
	}
	for id, existing := range f.items {
		if id != profile.ID && existing.MedicalLicense == profile.MedicalLicense {
			return types.DoctorProfile{}, store.ErrDuplicateLicense
		}
	}
	f.items[profile.ID] = profile
	return profile, nil
}

func (f *fakeProfiles) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeProfiles) ListByApproval(ctx context.Context, approved bool) ([]types.DoctorListing, error) {
	f.mu.Lock()
	ids := make([]int, 0, len(f.items))
	for id, profile := range f.items {
		if profile.Approved == approved {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	f.mu.Unlock()

	var listings []types.DoctorListing
	for _, id := range ids {
		listing, err := f.GetListing(ctx, id)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func (f *fakeProfiles) GetListing(ctx context.Context, id int) (types.DoctorListing, error) {
	profile, err := f.GetByID(ctx, id)
	if err != nil {
		return types.DoctorListing{}, err
	}
	listing := types.DoctorListing{DoctorProfile: profile}
	if f.accounts != nil {
		if account, err := f.accounts.GetByID(ctx, profile.AccountID); err == nil {
			listing.FullName = account.FullName
			listing.Email = account.Email
			listing.ProfileImage = account.ProfileImage
		}
	}
	return listing, nil
}

type fakeDiagnoses struct {
	mu         sync.Mutex
	nextID     int
	items      map[int]types.Diagnosis
	failCreate bool
}

func newFakeDiagnoses() *fakeDiagnoses {
	return &fakeDiagnoses{items: map[int]types.Diagnosis{}}
}

func (f *fakeDiagnoses) Create(_ context.Context, diagnosis types.Diagnosis) (types.Diagnosis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return types.Diagnosis{}, errors.New("insert failed")
	}
	f.nextID++
	diagnosis.ID = f.nextID
	f.items[diagnosis.ID] = diagnosis
	return diagnosis, nil
}

func (f *fakeDiagnoses) GetByID(_ context.Context, id int) (types.Diagnosis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	diagnosis, ok := f.items[id]
	if !ok {
		return types.Diagnosis{}, store.ErrNotFound
	}
	return diagnosis, nil
}

func (f *fakeDiagnoses) ListByAccount(_ context.Context, accountID int) ([]types.Diagnosis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Diagnosis
	for _, diagnosis := range f.items {
		if diagnosis.AccountID == accountID {
			out = append(out, diagnosis)
		}
	}
	return out, nil
}

func (f *fakeDiagnoses) ListAll(_ context.Context) ([]types.DiagnosisListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.DiagnosisListing
	for _, diagnosis := range f.items {
		out = append(out, types.DiagnosisListing{Diagnosis: diagnosis})
	}
	return out, nil
}

type fakeReports struct {
	mu         sync.Mutex
	nextID     int
	items      map[int]types.Report
	failCreate bool
}

func newFakeReports() *fakeReports {
	return &fakeReports{items: map[int]types.Report{}}
}

func (f *fakeReports) Create(_ context.Context, report types.Report) (types.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return types.Report{}, errors.New("insert failed")
	}
	f.nextID++
	report.ID = f.nextID
	f.items[report.ID] = report
	return report, nil
}

func (f *fakeReports) GetByID(_ context.Context, id int) (types.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.items[id]
	if !ok {
		return types.Report{}, store.ErrNotFound
	}
	return report, nil
}

func (f *fakeReports) ListByPatient(_ context.Context, patientID int) ([]types.ReportListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.ReportListing
	for _, report := range f.items {
		if report.PatientID == patientID {
			out = append(out, types.ReportListing{Report: report})
		}
	}
	return out, nil
}

func (f *fakeReports) GetListing(_ context.Context, id int) (types.ReportListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.items[id]
	if !ok {
		return types.ReportListing{}, store.ErrNotFound
	}
	return types.ReportListing{Report: report}, nil
}

func (f *fakeReports) GetByDiagnosis(_ context.Context, diagnosisID int) (types.ReportListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, report := range f.items {
		if report.DiagnosisID == diagnosisID {
			return types.ReportListing{Report: report}, nil
		}
	}
	return types.ReportListing{}, store.ErrNotFound
}

type fakeAppointments struct {
	mu     sync.Mutex
	nextID int
	items  map[int]types.Appointment
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{items: map[int]types.Appointment{}}
}

func (f *fakeAppointments) Create(_ context.Context, appointment types.Appointment) (types.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	appointment.ID = f.nextID
	f.items[appointment.ID] = appointment
	return appointment, nil
}

func (f *fakeAppointments) GetByID(_ context.Context, id int) (types.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appointment, ok := f.items[id]
	if !ok {
		return types.Appointment{}, store.ErrNotFound
	}
	return appointment, nil
}

func (f *fakeAppointments) ListByPatient(_ context.Context, patientID int) ([]types.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Appointment
	for _, appointment := range f.items {
		if appointment.PatientID == patientID {
			out = append(out, appointment)
		}
	}
	return out, nil
}

func (f *fakeAppointments) ListByDoctor(_ context.Context, doctorID int) ([]types.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Appointment
	for _, appointment := range f.items {
		if appointment.DoctorID == doctorID {
			out = append(out, appointment)
		}
	}
	return out, nil
}

func (f *fakeAppointments) UpdateStatus(_ context.Context, id int, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	appointment, ok := f.items[id]
	if !ok {
		return store.ErrNotFound
	}
	appointment.Status = status
	f.items[id] = appointment
	return nil
}

type fakePayments struct {
	mu           sync.Mutex
	nextID       int
	items        map[int]types.Payment
	appointments *fakeAppointments
}

func newFakePayments(appointments *fakeAppointments) *fakePayments {
	return &fakePayments{items: map[int]types.Payment{}, appointments: appointments}
}

func (f *fakePayments) Create(_ context.Context, payment types.Payment) (types.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	payment.ID = f.nextID
	f.items[payment.ID] = payment
	return payment, nil
}

func (f *fakePayments) GetByID(_ context.Context, id int) (types.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.items[id]
	if !ok {
		return types.Payment{}, store.ErrNotFound
	}
	return payment, nil
}

func (f *fakePayments) UpdateStatus(_ context.Context, id int, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.items[id]
	if !ok {
		return store.ErrNotFound
	}
	payment.Status = status
	f.items[id] = payment
	return nil
}

func (f *fakePayments) ListByDoctor(ctx context.Context, doctorID int) ([]types.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Payment
	for _, payment := range f.items {
		appointment, ok := f.appointments.items[payment.AppointmentID]
		if ok && appointment.DoctorID == doctorID {
			out = append(out, payment)
		}
	}
	return out, nil
}

type fakeMessages struct {
	mu     sync.Mutex
	nextID int
	items  map[int]types.Message
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{items: map[int]types.Message{}}
}

func (f *fakeMessages) Create(_ context.Context, message types.Message) (types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	message.ID = f.nextID
	f.items[message.ID] = message
	return message, nil
}

func (f *fakeMessages) ListByRecipient(_ context.Context, doctorID int) ([]types.MessageListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.MessageListing
	for _, message := range f.items {
		if message.ToID == doctorID {
			out = append(out, types.MessageListing{Message: message})
		}
	}
	return out, nil
}

type fakeObjectStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: map[string][]byte{}}
}

func (f *fakeObjectStorage) EnsureBucket(_ context.Context) error { return nil }

func (f *fakeObjectStorage) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjectStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStorage) Bucket() string { return "test" }

func (f *fakeObjectStorage) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}
