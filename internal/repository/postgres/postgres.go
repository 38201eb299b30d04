package postgres

import (
	"database/sql"

	"equiprent-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.TemplateRepository
	repository.ContractRepository
	repository.ArchiveRepository
	repository.MultiEquipmentContractRepository
	repository.SequenceRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                               db,
		TemplateRepository:               NewTemplateRepository(db),
		ContractRepository:               NewContractRepository(db),
		ArchiveRepository:                NewArchiveRepository(db),
		MultiEquipmentContractRepository: NewMultiEquipmentContractRepository(db),
		SequenceRepository:               NewSequenceRepository(db),
	}
}
