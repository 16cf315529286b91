package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core/supervisor"
	inmemdb "github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/storage/database/inmem"
	mongodb "github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/storage/database/mongo"
	sqlxrepos "github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/storage/database/sqlx"
)

// Store is the opened storage engine selected by conf.Database.Engine.
type Store struct {
	Repo supervisor.Repository
	// SQL is only set for the postgres engine.
	SQL   *sqlx.DB
	close func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore opens the configured engine. With autoMigrate, postgres is created and migrated up first.
func OpenStore(ctx context.Context, conf *core.Config, autoMigrate bool) (*Store, error) {
	switch conf.Database.Engine {
	case core.EnginePostgres:
		var db *sqlx.DB
		var err error
		if autoMigrate {
			db, err = Setup(ctx, conf)
		} else {
			db, err = Open(conf)
			if err == nil {
				if err = Ping(ctx, db); err != nil {
					_ = db.Close()
				}
			}
		}
		if err != nil {
			return nil, err
		}
		return &Store{Repo: sqlxrepos.NewSupervisorRepository(db), SQL: db, close: db.Close}, nil

	case core.EngineMongo:
		mdb, err := mongodb.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = mongodb.EnsureIndexes(ctx, mdb); err != nil {
			_ = mdb.Client().Disconnect(ctx)
			return nil, err
		}
		closeFn := func() error { return mdb.Client().Disconnect(context.Background()) }
		return &Store{Repo: mongodb.NewSupervisorRepository(mdb), close: closeFn}, nil

	case core.EngineMemory:
		return &Store{Repo: inmemdb.NewSupervisorRepository(inmemdb.Open())}, nil

	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}
