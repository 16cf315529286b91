package mongodb

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core/supervisor"
)

const (
	supervisorCollection = "supervisor"

	numberIndex = "supervisor_number_key"
	emailIndex  = "supervisor_email_key"
)

// Open connects to conf.Database.MongoURI and returns the app database.
func Open(ctx context.Context, conf *core.Config) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.MongoURI).SetAppName(conf.AppName))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err = client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "pinging mongodb")
	}
	return client.Database(conf.Database.Name), nil
}

// EnsureIndexes creates the unique indexes backing supervisor number and email uniqueness.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(supervisorCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "supervisor_number", Value: 1}},
			Options: options.Index().SetName(numberIndex).SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(emailIndex).SetUnique(true).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{{Key: "section", Value: 1}}},
		{Keys: bson.D{{Key: "division", Value: 1}}},
	})
	return errors.Wrap(err, "creating supervisor indexes")
}

type supervisorDoc struct {
	ID             string    `bson:"_id"`
	Number         string    `bson:"supervisor_number"`
	Title          string    `bson:"title"`
	Initials       string    `bson:"initials"`
	FirstName      string    `bson:"first_name"`
	Surname        string    `bson:"surname"`
	Designation    string    `bson:"designation"`
	OfficePhone    string    `bson:"office_phone"`
	MobilePhone    string    `bson:"mobile_phone"`
	Email          string    `bson:"email,omitempty"`
	Section        string    `bson:"section"`
	Division       string    `bson:"division"`
	CostCentreCode string    `bson:"cost_centre_code"`
	GroupName      string    `bson:"group_name"`
	SalaryGrade    string    `bson:"salary_grade"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func newSupervisorDoc(sup supervisor.Supervisor) supervisorDoc {
	return supervisorDoc{
		ID:             sup.ID,
		Number:         sup.Number,
		Title:          sup.Title,
		Initials:       sup.Initials,
		FirstName:      sup.FirstName,
		Surname:        sup.Surname,
		Designation:    sup.Designation,
		OfficePhone:    sup.OfficePhone,
		MobilePhone:    sup.MobilePhone,
		Email:          sup.Email,
		Section:        sup.Section,
		Division:       sup.Division,
		CostCentreCode: sup.CostCentreCode,
		GroupName:      sup.GroupName,
		SalaryGrade:    sup.SalaryGrade,
		CreatedAt:      sup.CreatedAt.UTC(),
		UpdatedAt:      sup.UpdatedAt.UTC(),
	}
}

func (d supervisorDoc) toSupervisor() supervisor.Supervisor {
	return supervisor.Supervisor{
		ID: d.ID,
		Profile: supervisor.Profile{
			Number:         d.Number,
			Title:          d.Title,
			Initials:       d.Initials,
			FirstName:      d.FirstName,
			Surname:        d.Surname,
			Designation:    d.Designation,
			OfficePhone:    d.OfficePhone,
			MobilePhone:    d.MobilePhone,
			Email:          d.Email,
			Section:        d.Section,
			Division:       d.Division,
			CostCentreCode: d.CostCentreCode,
			GroupName:      d.GroupName,
			SalaryGrade:    d.SalaryGrade,
		},
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type supervisorRepository struct {
	coll *mongo.Collection
}

func NewSupervisorRepository(db *mongo.Database) supervisor.Repository {
	return &supervisorRepository{coll: db.Collection(supervisorCollection)}
}

func trapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return supervisor.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		msg := err.Error()
		if strings.Contains(msg, numberIndex) {
			return supervisor.ErrNumberExists
		} else if strings.Contains(msg, emailIndex) {
			return supervisor.ErrEmailExists
		}
	}
	return err
}

func exactCI(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

func (repo *supervisorRepository) CheckUniqueness(ctx context.Context, number, email string, excludedIDs ...string) error {
	or := bson.A{bson.M{"supervisor_number": number}}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	filter := bson.M{"$or": or}
	if len(excludedIDs) > 0 {
		filter["_id"] = bson.M{"$nin": excludedIDs}
	}

	var doc supervisorDoc
	err := repo.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	} else if err != nil {
		return errors.Wrap(err, "checking supervisor uniqueness")
	}
	if doc.Number == number {
		return supervisor.ErrNumberExists
	}
	return supervisor.ErrEmailExists
}

func (repo *supervisorRepository) CreateSupervisor(ctx context.Context, sup supervisor.Supervisor) (supervisor.Supervisor, error) {
	sup.ID = uuid.NewString()
	doc := newSupervisorDoc(sup)
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return supervisor.Supervisor{}, trapErr(err)
	}
	return doc.toSupervisor(), nil
}

// queryFilter builds the Find filter of qf.
func queryFilter(qf *supervisor.QueryFilter) bson.M {
	filter := bson.M{}
	if qf == nil || qf.IsEmpty() {
		return filter
	}
	if qf.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(qf.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"supervisor_number": rx},
			bson.M{"first_name": rx},
			bson.M{"surname": rx},
			bson.M{"email": rx},
		}
	}
	if qf.Section != "" {
		filter["section"] = exactCI(qf.Section)
	}
	if qf.Division != "" {
		filter["division"] = exactCI(qf.Division)
	}
	return filter
}

// sortSpec keeps the known ordering fields, defaulting to the supervisor number.
func sortSpec(ordering []core.DBOrdering) bson.D {
	sort := bson.D{}
	for _, o := range ordering {
		if !supervisor.OrderingFields[o.Field] {
			continue
		}
		dir := -1
		if o.Ascending {
			dir = 1
		}
		sort = append(sort, bson.E{Key: o.Field, Value: dir})
	}
	if len(sort) == 0 {
		sort = bson.D{{Key: "supervisor_number", Value: 1}}
	}
	return sort
}

func (repo *supervisorRepository) QuerySupervisors(ctx context.Context, qf *supervisor.QueryFilter, ordering []core.DBOrdering) ([]supervisor.Supervisor, error) {
	cur, err := repo.coll.Find(ctx, queryFilter(qf), options.Find().SetSort(sortSpec(ordering)))
	if err != nil {
		return nil, errors.Wrap(err, "querying supervisors")
	}
	var docs []supervisorDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding supervisors")
	}

	sups := make([]supervisor.Supervisor, 0, len(docs))
	for _, d := range docs {
		sups = append(sups, d.toSupervisor())
	}
	return sups, nil
}

// getFilter builds the FindOne filter of f; ok is false when f selects nothing.
// NotNumber alone does not select a Supervisor.
func getFilter(f supervisor.GetFilter) (filter bson.M, ok bool) {
	filter = bson.M{}
	if f.ID != "" {
		filter["_id"] = f.ID
	}
	if f.Email != "" {
		filter["email"] = f.Email
	}
	switch {
	case f.Number != "":
		filter["supervisor_number"] = f.Number
	case f.NotNumber != "":
		filter["supervisor_number"] = bson.M{"$ne": f.NotNumber}
	}
	if len(filter) == 0 || (len(filter) == 1 && f.Number == "" && f.NotNumber != "") {
		return nil, false
	}
	return filter, true
}

func (repo *supervisorRepository) GetSupervisor(ctx context.Context, f supervisor.GetFilter) (supervisor.Supervisor, error) {
	filter, ok := getFilter(f)
	if !ok {
		return supervisor.Supervisor{}, supervisor.ErrNotFound
	}

	var doc supervisorDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return supervisor.Supervisor{}, trapErr(err)
	}
	return doc.toSupervisor(), nil
}

func (repo *supervisorRepository) UpdateSupervisor(ctx context.Context, sup supervisor.Supervisor) (supervisor.Supervisor, error) {
	doc := newSupervisorDoc(sup)
	set := bson.M{
		"supervisor_number": doc.Number,
		"title":             doc.Title,
		"initials":          doc.Initials,
		"first_name":        doc.FirstName,
		"surname":           doc.Surname,
		"designation":       doc.Designation,
		"office_phone":      doc.OfficePhone,
		"mobile_phone":      doc.MobilePhone,
		"section":           doc.Section,
		"division":          doc.Division,
		"cost_centre_code":  doc.CostCentreCode,
		"group_name":        doc.GroupName,
		"salary_grade":      doc.SalaryGrade,
		"updated_at":        doc.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if doc.Email == "" {
		update["$unset"] = bson.M{"email": ""}
	} else {
		set["email"] = doc.Email
	}

	var updated supervisorDoc
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": sup.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		return supervisor.Supervisor{}, trapErr(err)
	}
	return updated.toSupervisor(), nil
}

func (repo *supervisorRepository) DeleteSupervisorsByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := repo.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, errors.Wrap(err, "deleting supervisors")
	}
	return int(res.DeletedCount), nil
}
