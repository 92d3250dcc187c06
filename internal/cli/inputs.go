package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshadvisor/internal/advisor"
	"github.com/Faultbox/meshadvisor/internal/asset"
	"github.com/Faultbox/meshadvisor/internal/asset/sqlstore"
	"github.com/Faultbox/meshadvisor/internal/logger"
	"github.com/Faultbox/meshadvisor/internal/scan"
)

// inputs are the meshes and components of one run.
type inputs struct {
	meshes []scan.Entry
	comps  []scan.ComponentEntry
	store  *sqlstore.Store
}

func (in *inputs) Close() error {
	if in.store != nil {
		return in.store.Close()
	}
	return nil
}

func loadDocuments(paths []string) ([]*asset.Document, error) {
	docs := make([]*asset.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := asset.LoadDocument(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func openStore(path string) (*sqlstore.Store, error) {
	st, err := sqlstore.Open(path, sqlstore.WithMkdirAll())
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return st, nil
}

// failedEntry records a mesh that could not be loaded so the scan reports
// it without aborting the batch.
func failedEntry(d asset.Descriptor, err error) scan.Entry {
	logger.Warn("mesh rejected", zap.String("mesh", d.Name), zap.String("path", d.Path), zap.Error(err))
	return scan.Entry{Path: d.Path, Name: d.Name, Err: err}
}

// importDocuments stores every mesh of docs. It returns how many were
// written and an entry for each mesh the store rejected.
func importDocuments(ctx context.Context, st *sqlstore.Store, docs []*asset.Document) (int, []scan.Entry) {
	n := 0
	var failed []scan.Entry
	for _, doc := range docs {
		for _, d := range doc.Meshes {
			if err := st.Put(ctx, d); err != nil {
				failed = append(failed, failedEntry(d, err))
				continue
			}
			n++
		}
	}
	return n, failed
}

// loadInputs resolves descriptor files into scan entries. With a store the
// files are imported first and every cataloged mesh is scanned, so fixes
// are written back to the catalog. A mesh that cannot be built or stored
// becomes a failed entry; only unreadable files and store errors abort.
func loadInputs(ctx context.Context, storePath string, paths []string) (*inputs, error) {
	docs, err := loadDocuments(paths)
	if err != nil {
		return nil, err
	}

	in := &inputs{}
	byName := make(map[string]asset.Mesh)

	if storePath != "" {
		st, err := openStore(storePath)
		if err != nil {
			return nil, err
		}
		in.store = st
		_, in.meshes = importDocuments(ctx, st, docs)
		names, err := st.List(ctx, "")
		if err != nil {
			in.Close()
			return nil, err
		}
		for _, name := range names {
			m, err := st.Load(ctx, name)
			if err != nil {
				in.meshes = append(in.meshes, failedEntry(asset.Descriptor{Name: name}, err))
				continue
			}
			byName[name] = m
			in.meshes = append(in.meshes, scan.Entry{Path: m.Path(), Mesh: m})
		}
	} else {
		for _, doc := range docs {
			for _, d := range doc.Meshes {
				m, err := asset.NewMemoryMesh(d)
				if err != nil {
					in.meshes = append(in.meshes, failedEntry(d, err))
					continue
				}
				byName[d.Name] = m
				in.meshes = append(in.meshes, scan.Entry{Path: d.Path, Mesh: m})
			}
		}
	}

	for _, doc := range docs {
		for _, p := range doc.Placements {
			in.comps = append(in.comps, scan.ComponentEntry{
				Path:      p.Path,
				Component: advisor.ComponentFromPlacement(p, byName[p.Mesh]),
			})
		}
	}
	return in, nil
}
