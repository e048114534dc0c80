// Package emulator runs an in-process Cloud Storage server for tests.
package emulator

import (
	"net"
	"sort"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/fsouza/fake-gcs-server/fakestorage"
)

func freePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("getting free port: %v", err)
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port
}

type Emulator struct {
	server *fakestorage.Server
	t      *testing.T
}

// ListObjectNames returns the names of the objects in bucket, sorted.
func (e *Emulator) ListObjectNames(bucket string) []string {
	objs, _, err := e.server.ListObjectsWithOptions(bucket, fakestorage.ListOptions{})
	if err != nil {
		e.t.Fatalf("getting objects in bucket %s: %v", bucket, err)
	}

	out := make([]string, len(objs))
	for i, obj := range objs {
		out[i] = obj.Name
	}

	sort.Strings(out)

	return out
}

func (e *Emulator) GetObject(bucket, name string) fakestorage.Object {
	obj, err := e.server.GetObject(bucket, name)
	if err != nil {
		e.t.Fatalf("getting object %s/%s: %v", bucket, name, err)
	}

	return obj
}

func (e *Emulator) CreateBucket(name string) {
	e.server.CreateBucketWithOpts(fakestorage.CreateBucketOpts{
		Name: name,
	})
}

func (e *Emulator) Client() *storage.Client {
	return e.server.Client()
}

// Endpoint is the storage API location, usable as the archive endpoint.
func (e *Emulator) Endpoint() string {
	return e.server.URL() + "/storage/v1/"
}

// New starts an emulator holding initialObjects, it is stopped when the
// test finishes.
func New(t *testing.T, initialObjects []fakestorage.Object) *Emulator {
	t.Helper()

	server, err := fakestorage.NewServerWithOptions(fakestorage.Options{
		InitialObjects: initialObjects,
		Scheme:         "http",
		Host:           "localhost",
		Port:           uint16(freePort(t)),
	})
	if err != nil {
		t.Fatalf("creating fake storage server: %v", err)
	}

	t.Cleanup(server.Stop)

	return &Emulator{
		t:      t,
		server: server,
	}
}
