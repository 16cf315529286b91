package inmemdb

import (
	"sync"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core/supervisor"
)

type (
	DB struct {
		supervisor *supervisorTable
	}

	supervisorTable struct {
		sync.RWMutex
		table map[string]*supervisor.Supervisor // {ID: Supervisor}
	}
)

func Open() *DB {
	return &DB{
		supervisor: &supervisorTable{table: make(map[string]*supervisor.Supervisor)},
	}
}

// Reset drops every row.
func (db *DB) Reset() {
	db.supervisor.Lock()
	db.supervisor.table = make(map[string]*supervisor.Supervisor)
	db.supervisor.Unlock()
}
