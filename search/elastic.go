// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/errors"
	"github.com/featurebasedb/horuz/logger"
	"github.com/featurebasedb/horuz/record"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// DefaultAddress is used when no server has been configured.
const DefaultAddress = "http://localhost:9200"

// Ensure Elastic implements interface.
var _ Backend = &Elastic{}

// Config configures an Elastic backend.
type Config struct {
	Address string
	// Retries is the number of times a request that failed to connect, or
	// got a 5xx response, is retried.
	Retries int
	// Timeout bounds every single HTTP attempt.
	Timeout time.Duration
	Logger  logger.Logger
}

// Elastic is a Backend talking to an Elasticsearch 7 cluster.
type Elastic struct {
	es     *elasticsearch.Client
	logger logger.Logger
}

// NewElastic returns a backend for the cluster at cfg.Address. Retries are
// handled by a retryablehttp transport instead of the client's own retry.
func NewElastic(cfg Config) (*Elastic, error) {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NopLogger
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.Retries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = logger.RetryLogger(cfg.Logger)
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{cfg.Address},
		Transport:    &retryablehttp.RoundTripper{Client: rc},
		DisableRetry: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating elasticsearch client")
	}
	return &Elastic{es: es, logger: cfg.Logger}, nil
}

// Healthy implements Backend.
func (e *Elastic) Healthy(ctx context.Context) bool {
	res, err := e.es.Cluster.Health(e.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		e.logger.Debugf("health check: %v", err)
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}

// IndexExists implements Backend.
func (e *Elastic) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := e.es.Indices.Exists([]string{name}, e.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, unavailable(err, "checking index")
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, responseError(res, "checking index")
}

// CreateIndex implements Backend. Creating an index which already exists is
// not an error.
func (e *Elastic) CreateIndex(ctx context.Context, name string) error {
	exists, err := e.IndexExists(ctx, name)
	if err != nil {
		return err
	} else if exists {
		return nil
	}

	res, err := e.es.Indices.Create(name, e.es.Indices.Create.WithContext(ctx))
	if err != nil {
		return unavailable(err, "creating index")
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusBadRequest {
		// Lost a race with another writer.
		body, _ := io.ReadAll(res.Body)
		if gjson.GetBytes(body, "error.type").String() == "resource_already_exists_exception" {
			return nil
		}
		return errors.Errorf("creating index: %s: %s", res.Status(), errorReason(body))
	}
	if res.IsError() {
		return responseError(res, "creating index")
	}
	e.logger.Debugf("created index %s", name)
	return nil
}

// IndexDocument implements Backend.
func (e *Elastic) IndexDocument(ctx context.Context, index string, doc record.Record) (string, error) {
	if err := e.CreateIndex(ctx, index); err != nil {
		return "", err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, "marshaling document")
	}

	res, err := e.es.Index(index, bytes.NewReader(body), e.es.Index.WithContext(ctx))
	if err != nil {
		return "", unavailable(err, "indexing document")
	}
	defer res.Body.Close()
	if res.IsError() {
		return "", responseError(res, "indexing document")
	}
	out, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading index response")
	}
	id := gjson.GetBytes(out, "_id").String()
	if id == "" {
		return "", errors.New(horuz.ErrMalformedQuery, "index response has no _id")
	}
	return id, nil
}

// DeleteIndex implements Backend.
func (e *Elastic) DeleteIndex(ctx context.Context, name string) error {
	res, err := e.es.Indices.Delete([]string{name}, e.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return unavailable(err, "deleting index")
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError(res, "deleting index")
	}
	return nil
}

// Search implements Backend.
func (e *Elastic) Search(ctx context.Context, index string, q Query) ([]record.Record, error) {
	opts := []func(*esapi.SearchRequest){
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(index),
		e.es.Search.WithQuery(q.Term),
	}
	if len(q.Sort) > 0 {
		opts = append(opts, e.es.Search.WithSort(q.Sort...))
	}
	if q.Size > 0 {
		opts = append(opts, e.es.Search.WithSize(q.Size))
	}
	if len(q.Fields) > 0 {
		opts = append(opts, e.es.Search.WithSource(q.Fields...))
	}
	e.logger.Debugf("elasticsearch lucene query on %s: %s", index, q.Term)

	res, err := e.es.Search(opts...)
	if err != nil {
		return nil, unavailable(err, "searching")
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.StatusCode == http.StatusBadRequest {
		body, _ := io.ReadAll(res.Body)
		return nil, errors.Newf(horuz.ErrMalformedQuery, "query %q rejected: %s", q.Term, errorReason(body))
	}
	if res.IsError() {
		return nil, responseError(res, "searching")
	}

	v, err := record.Decode(res.Body)
	if err != nil {
		return nil, errors.New(horuz.ErrMalformedQuery, "search response is not valid json")
	}
	envelope, ok := record.AsRecord(v)
	if !ok {
		return nil, errors.New(horuz.ErrMalformedQuery, "search response is not an object")
	}
	return record.Hits(envelope)
}

// SearchRaw implements Backend. A missing index returns a nil body.
func (e *Elastic) SearchRaw(ctx context.Context, index string, body []byte) ([]byte, error) {
	e.logger.Debugf("elasticsearch raw query on %s: %s", index, body)
	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(index),
		e.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, unavailable(err, "searching")
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	out, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading search response")
	}
	if res.StatusCode == http.StatusBadRequest {
		return nil, errors.Newf(horuz.ErrMalformedQuery, "query rejected: %s", errorReason(out))
	}
	if res.IsError() {
		return nil, errors.Errorf("searching: %s: %s", res.Status(), errorReason(out))
	}
	return out, nil
}

// Mapping implements Backend. A missing index has no fields.
func (e *Elastic) Mapping(ctx context.Context, index string) ([]string, error) {
	res, err := e.es.Indices.GetMapping(
		e.es.Indices.GetMapping.WithContext(ctx),
		e.es.Indices.GetMapping.WithIndex(index),
	)
	if err != nil {
		return nil, unavailable(err, "getting mapping")
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		return nil, responseError(res, "getting mapping")
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading mapping")
	}

	var props gjson.Result
	gjson.ParseBytes(body).ForEach(func(k, v gjson.Result) bool {
		if k.String() == index {
			props = v.Get("mappings.properties")
			return false
		}
		return true
	})
	return mappingFields(props), nil
}

// Indices implements Backend.
func (e *Elastic) Indices(ctx context.Context) ([]string, error) {
	res, err := e.es.Indices.GetAlias(e.es.Indices.GetAlias.WithContext(ctx))
	if err != nil {
		return nil, unavailable(err, "listing indices")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError(res, "listing indices")
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading indices")
	}

	var names []string
	gjson.ParseBytes(body).ForEach(func(k, _ gjson.Result) bool {
		names = append(names, k.String())
		return true
	})
	sort.Strings(names)
	return names, nil
}

// unavailable marks a transport failure: the cluster could not be reached
// even after retries.
func unavailable(err error, action string) error {
	return errors.Wrap(errors.New(horuz.ErrBackendUnavailable, err.Error()), action)
}

func responseError(res *esapi.Response, action string) error {
	body, _ := io.ReadAll(res.Body)
	return errors.Errorf("%s: %s: %s", action, res.Status(), errorReason(body))
}

// errorReason pulls the human readable part out of an Elasticsearch error
// body.
func errorReason(body []byte) string {
	if r := gjson.GetBytes(body, "error.reason"); r.Exists() {
		return r.String()
	}
	if r := gjson.GetBytes(body, "error"); r.Exists() {
		return r.String()
	}
	return string(bytes.TrimSpace(body))
}
