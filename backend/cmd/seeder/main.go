package main

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"college_portal/backend/internal/grading"
	"college_portal/backend/internal/result"
	"college_portal/backend/internal/roster"
	"college_portal/backend/internal/shared"
)

// Define the seed constants
const (
	// User IDs
	AdminID1   = "admin-001"
	TeacherID1 = "teacher-001"
	TeacherID2 = "teacher-002"
	StudentID1 = "student-001" // John Student, BSc-CS year 2
	StudentID2 = "student-002" // Alice Wonderland, BSc-CS year 2
	StudentID3 = "student-003" // Bob Builder, BSc-CS year 2
	StudentID4 = "student-004" // Carol Ledger, BCom year 2
	StudentID5 = "student-005" // Dan Margin, BCom year 2

	// Current Academic Period
	CurrentYear      = "2024-25"
	PreviousSemester = int32(3)
	CurrentSemester  = int32(4)
)

// ResultSeed holds the raw marks of one student for easy seeding
type ResultSeed struct {
	StudentID string
	Marks     []float64 // one entry per subject, out of 100
}

var semester3Subjects = []shared.SubjectSubmission{
	{SubjectID: "CS301", SubjectName: "Operating Systems", Credits: 4, MaxMarks: 100},
	{SubjectID: "CS302", SubjectName: "Computer Networks", Credits: 4, MaxMarks: 100},
	{SubjectID: "MA301", SubjectName: "Discrete Mathematics", Credits: 3, MaxMarks: 100},
	{SubjectID: "HS301", SubjectName: "Professional Ethics", Credits: 2, MaxMarks: 100},
}

func main() {
	log.Println("Starting Results Database Seeder...")

	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := shared.LoadServiceConfig("seeder")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := shared.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB, logger)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() { _ = shared.DisconnectMongoDB(client) }()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Start from an empty results collection so revisions restart at 1
	if err := db.Collection(shared.CollectionResults).Drop(ctx); err != nil {
		log.Fatalf("Failed to drop results: %v", err)
	}
	log.Println("Results collection cleared successfully.")

	// --- 1. Seed Users ---
	seedUsers(ctx, db)

	// --- 2. Build the engine on top of the seeded roster ---
	policy, err := grading.LoadPolicy(cfg.Grading.PolicyFile)
	if err != nil {
		log.Fatalf("Failed to load grading policy: %v", err)
	}
	store := result.NewMongoStore(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	svc := result.NewService(store, roster.NewMongoRoster(db), policy,
		result.WithLogger(logger),
		result.WithConcurrency(cfg.Ingest.Concurrency),
	)

	// --- 3. Previous semester: bulk upload, then publish ---
	seeds := []ResultSeed{
		{StudentID1, []float64{92, 85, 78, 88}},
		{StudentID2, []float64{67, 72, 58, 81}},
		{StudentID3, []float64{35, 48, 31, 62}}, // two failures
		{StudentID4, []float64{55, 38, 61, 70}}, // one failure
		{StudentID5, []float64{25, 30, 22, 41}}, // fails most subjects
	}
	seedBulkResults(ctx, svc, PreviousSemester, seeds)

	n, err := svc.PublishBatch(ctx, shared.PublishFilter{Semester: PreviousSemester, AcademicYear: CurrentYear})
	if err != nil {
		log.Fatalf("Failed to publish semester %d: %v", PreviousSemester, err)
	}
	log.Printf("Published %d result(s) for semester %d", n, PreviousSemester)

	// --- 4. Current semester: component marks and attendance, left unpublished ---
	seedComponentResult(ctx, svc)

	log.Println("All data seeding completed successfully.")
}

// ============================================================================
// SEEDING FUNCTIONS
// ============================================================================

func seedUsers(ctx context.Context, db *mongo.Database) {
	log.Println("--- Seeding Users ---")
	usersCol := db.Collection(shared.CollectionUsers)
	now := time.Now()

	users := []shared.User{
		{ID: AdminID1, Name: "Super Admin", Email: "admin@example.com", Role: shared.RoleAdmin, IsActive: true, CreatedAt: now},
		{ID: TeacherID1, Name: "Dr. Jane Professor", Email: "teacher@example.com", Role: shared.RoleTeacher, IsActive: true, CreatedAt: now},
		{ID: TeacherID2, Name: "Prof. Alan Turing", Email: "teacher2@example.com", Role: shared.RoleTeacher, IsActive: true, CreatedAt: now},
		{ID: StudentID1, Name: "John Student", Email: "student@example.com", Role: shared.RoleStudent, IsActive: true, CreatedAt: now, EnrollmentNo: "202300001", Stream: "BSc-CS", YearLevel: 2},
		{ID: StudentID2, Name: "Alice Wonderland", Email: "student2@example.com", Role: shared.RoleStudent, IsActive: true, CreatedAt: now, EnrollmentNo: "202300002", Stream: "BSc-CS", YearLevel: 2},
		{ID: StudentID3, Name: "Bob Builder", Email: "student3@example.com", Role: shared.RoleStudent, IsActive: true, CreatedAt: now, EnrollmentNo: "202300003", Stream: "BSc-CS", YearLevel: 2},
		{ID: StudentID4, Name: "Carol Ledger", Email: "student4@example.com", Role: shared.RoleStudent, IsActive: true, CreatedAt: now, EnrollmentNo: "202300004", Stream: "BCom", YearLevel: 2},
		{ID: StudentID5, Name: "Dan Margin", Email: "student5@example.com", Role: shared.RoleStudent, IsActive: true, CreatedAt: now, EnrollmentNo: "202300005", Stream: "BCom", YearLevel: 2},
	}

	for _, u := range users {
		filter := bson.M{"_id": u.ID}
		update := bson.M{"$set": u}
		opts := options.Update().SetUpsert(true)

		_, err := usersCol.UpdateOne(ctx, filter, update, opts)
		if err != nil {
			log.Fatalf("Error seeding user %s: %v", u.Email, err)
		}
		log.Printf("Seeded %s: %s", u.Role, u.Email)
	}
}

func seedBulkResults(ctx context.Context, svc *result.Service, semester int32, seeds []ResultSeed) {
	log.Printf("--- Seeding Semester %d Results ---", semester)

	batch := shared.BulkSubmission{Semester: semester, AcademicYear: CurrentYear}
	for _, s := range seeds {
		subjects := make([]shared.SubjectSubmission, len(semester3Subjects))
		copy(subjects, semester3Subjects)
		for i := range subjects {
			subjects[i].MarksObtained = s.Marks[i]
		}
		batch.Rows = append(batch.Rows, shared.BulkRow{StudentID: s.StudentID, Subjects: subjects})
	}

	out, err := svc.BulkSubmit(ctx, batch)
	if err != nil {
		log.Fatalf("Error seeding semester %d: %v", semester, err)
	}
	for _, rowErr := range out.Errors {
		log.Printf("Row for %s rejected: %s", rowErr.StudentID, rowErr.Error)
	}
	log.Printf("Seeded %d result(s) for semester %d", out.ProcessedCount, semester)
}

func seedComponentResult(ctx context.Context, svc *result.Service) {
	log.Printf("--- Seeding Semester %d Results ---", CurrentSemester)

	attended, total := int32(42), int32(48)
	sub := shared.ResultSubmission{
		StudentID:    StudentID1,
		Semester:     CurrentSemester,
		AcademicYear: CurrentYear,
		Subjects: []shared.SubjectSubmission{
			{
				SubjectID: "CS401", SubjectName: "Compiler Design", Credits: 4,
				Components: []shared.MarkComponent{
					{Category: shared.CategoryInternal, MarksObtained: 34, MaxMarks: 40},
					{Category: shared.CategoryExternal, MarksObtained: 48, MaxMarks: 60},
				},
				AttendedClasses: &attended,
				TotalClasses:    &total,
			},
			{
				SubjectID: "CS402", SubjectName: "Distributed Systems", Credits: 4,
				Components: []shared.MarkComponent{
					{Category: shared.CategoryInternal, MarksObtained: 30, MaxMarks: 40},
					{Category: shared.CategoryExternal, MarksObtained: 41, MaxMarks: 60},
				},
			},
		},
	}

	out, err := svc.Submit(ctx, sub)
	if err != nil {
		log.Fatalf("Error seeding %s: %v", sub.StudentID, err)
	}
	zap.L().Info("seeded result",
		zap.String("student_id", out.Result.StudentID),
		zap.Float64("sgpa", out.Result.SGPA),
		zap.String("status", string(out.Result.OverallStatus)),
	)
}
