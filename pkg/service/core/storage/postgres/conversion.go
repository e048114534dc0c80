package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/navikt/datavask-backend/pkg/database/gensql"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/sqlc-dev/pqtype"
)

type Converter[O any] interface {
	To() (O, error)
}

func From[I Converter[O], O any](i I) (O, error) {
	return i.To()
}

type Dataset gensql.Dataset

func (d Dataset) To() (*service.Dataset, error) {
	mapping := map[string]string{}

	if d.HeaderMapping.Valid && len(d.HeaderMapping.RawMessage) > 0 {
		err := json.Unmarshal(d.HeaderMapping.RawMessage, &mapping)
		if err != nil {
			return nil, fmt.Errorf("unmarshal header mapping of %s: %w", d.Name, err)
		}
	}

	return &service.Dataset{
		ID:            d.ID,
		Name:          d.Name,
		SourceFile:    d.SourceFile,
		Sheet:         d.Sheet,
		HeaderMapping: mapping,
		Revision:      d.Revision,
		Created:       d.Created,
		LastModified:  d.LastModified,
	}, nil
}

type Datasets []gensql.Dataset

func (d Datasets) To() ([]*service.Dataset, error) {
	datasets := make([]*service.Dataset, len(d))

	for i, raw := range d {
		ds, err := From(Dataset(raw))
		if err != nil {
			return nil, err
		}

		datasets[i] = ds
	}

	return datasets, nil
}

func headerMappingToNullRawMessage(mapping map[string]string) (pqtype.NullRawMessage, error) {
	if mapping == nil {
		return pqtype.NullRawMessage{}, nil
	}

	raw, err := json.Marshal(mapping)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}

	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}
