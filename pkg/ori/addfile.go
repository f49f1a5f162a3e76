package ori

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pipcet/ori/internal/core/chunker"
	"github.com/pipcet/ori/internal/core/objects"
)

// AddFile stores the file at path. Files below LargeFileMinimum become a
// single Blob; larger files are chunked into blobs behind a LargeBlob
// manifest. Returns the kind and hash of the target object.
func (r *Repository) AddFile(path string) (objects.Kind, objects.ObjectHash, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, objects.ObjectHash{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if info.Size() < LargeFileMinimum {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, objects.ObjectHash{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
		hash, err := r.AddBlob(data)
		if err != nil {
			return 0, objects.ObjectHash{}, err
		}
		return objects.KindBlob, hash, nil
	}

	lb, err := r.chunkFile(path)
	if err != nil {
		return 0, objects.ObjectHash{}, err
	}

	data, err := lb.Marshal()
	if err != nil {
		return 0, objects.ObjectHash{}, err
	}
	obj := objects.NewObject(objects.KindLargeBlob, data)
	if err := r.store.AddObject(obj); err != nil {
		return 0, objects.ObjectHash{}, err
	}

	r.log.WithFields(map[string]interface{}{
		"path":   path,
		"chunks": len(lb.Parts()),
		"hash":   obj.Info.Hash.String(),
	}).Debug("chunked large file")

	return objects.KindLargeBlob, obj.Info.Hash, nil
}

// chunkFile runs the content-defined chunker over path, storing each chunk
// as a blob (duplicates collapse naturally under content addressing) and
// assembling the LargeBlob manifest.
func (r *Repository) chunkFile(path string) (*objects.LargeBlob, error) {
	totalHash, _, err := objects.HashFile(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for chunking: %w", path, err)
	}
	defer f.Close()

	lb := objects.NewLargeBlob()
	lb.TotalHash = totalHash

	ck := chunker.New(f)
	for {
		chunk, err := ck.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("chunking %s failed: %w", path, err)
		}

		hash, err := r.AddBlob(chunk)
		if err != nil {
			return nil, err
		}
		lb.AppendPart(hash, uint16(len(chunk)))
	}

	return lb, nil
}

// fileTargetHash computes the hash a file would store under without writing
// anything: the blob hash for small files, the manifest hash for large ones.
// Used by the working-directory scan.
func (r *Repository) fileTargetHash(path string, size int64) (objects.ObjectHash, bool, error) {
	if size < LargeFileMinimum {
		data, err := os.ReadFile(path)
		if err != nil {
			return objects.ObjectHash{}, false, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return objects.HashBytes(data), false, nil
	}

	totalHash, _, err := objects.HashFile(path)
	if err != nil {
		return objects.ObjectHash{}, false, err
	}

	f, err := os.Open(path)
	if err != nil {
		return objects.ObjectHash{}, false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	lb := objects.NewLargeBlob()
	lb.TotalHash = totalHash

	ck := chunker.New(f)
	for {
		chunk, err := ck.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return objects.ObjectHash{}, false, err
		}
		lb.AppendPart(objects.HashBytes(chunk), uint16(len(chunk)))
	}

	data, err := lb.Marshal()
	if err != nil {
		return objects.ObjectHash{}, false, err
	}
	return objects.HashBytes(data), true, nil
}
