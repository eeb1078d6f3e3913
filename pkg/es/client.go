// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"interviewiq-go/internal/config"
	"interviewiq-go/internal/model"
	"interviewiq-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const chatRecordMapping = `{
	"mappings": {
		"properties": {
			"record_id":  { "type": "long" },
			"user_id":    { "type": "long" },
			"message":    { "type": "text" },
			"response":   { "type": "text" },
			"category":   { "type": "keyword" },
			"confidence": { "type": "float" },
			"follow_up":  { "type": "boolean" },
			"created_at": { "type": "date" }
		}
	}
}`

// Client 封装了聊天记录索引的读写。
type Client struct {
	es        *elasticsearch.Client
	indexName string
}

// SearchQuery 描述一次聊天记录全文检索。
type SearchQuery struct {
	Text     string
	Category string
	UserID   *uint
	Size     int
}

// NewClient 初始化 Elasticsearch 客户端并确保索引存在。
func NewClient(esCfg config.ElasticsearchConfig) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: strings.Split(esCfg.Addresses, ","),
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	c := &Client{es: es, indexName: esCfg.IndexName}
	if err := c.createIndexIfNotExists(); err != nil {
		return nil, err
	}
	return c, nil
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func (c *Client) createIndexIfNotExists() error {
	res, err := c.es.Indices.Exists([]string{c.indexName})
	if err != nil {
		return fmt.Errorf("检查索引是否存在时出错: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", c.indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	res, err = c.es.Indices.Create(
		c.indexName,
		c.es.Indices.Create.WithBody(strings.NewReader(chatRecordMapping)),
	)
	if err != nil {
		return fmt.Errorf("创建索引 '%s' 失败: %w", c.indexName, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", c.indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", c.indexName)
	return nil
}

// IndexChatRecord 将一条聊天记录写入索引，记录 ID 作为文档 ID，重复写入是幂等的。
func (c *Client) IndexChatRecord(ctx context.Context, doc model.ChatRecordDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      c.indexName,
		DocumentID: strconv.FormatUint(uint64(doc.RecordID), 10),
		Body:       bytes.NewReader(docBytes),
	}
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引聊天记录到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index chat record")
	}
	return nil
}

// SearchChatRecords 按文本检索聊天记录，返回命中列表与总数。
func (c *Client) SearchChatRecords(ctx context.Context, q SearchQuery) ([]model.ChatSearchHit, int64, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildSearchQuery(q)); err != nil {
		return nil, 0, fmt.Errorf("failed to encode search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.indexName),
		c.es.Search.WithBody(&buf),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, fmt.Errorf("search returned error: %s", res.String())
	}
	return decodeSearchResponse(res.Body)
}

func buildSearchQuery(q SearchQuery) map[string]interface{} {
	size := q.Size
	if size <= 0 || size > 100 {
		size = 20
	}

	must := []interface{}{}
	if strings.TrimSpace(q.Text) != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"message^2", "response"},
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	filter := []interface{}{}
	if q.Category != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"category": q.Category}})
	}
	if q.UserID != nil {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"user_id": *q.UserID}})
	}

	return map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
}

func decodeSearchResponse(body io.Reader) ([]model.ChatSearchHit, int64, error) {
	var esResponse struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source model.ChatRecordDocument `json:"_source"`
				Score  float64                  `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&esResponse); err != nil {
		return nil, 0, fmt.Errorf("failed to decode es response: %w", err)
	}

	hits := make([]model.ChatSearchHit, 0, len(esResponse.Hits.Hits))
	for _, h := range esResponse.Hits.Hits {
		hits = append(hits, model.ChatSearchHit{ChatRecordDocument: h.Source, Score: h.Score})
	}
	return hits, esResponse.Hits.Total.Value, nil
}
