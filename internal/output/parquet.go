package output

import (
	"fmt"
	"io"

	"github.com/chrisdamba/orderpulse/internal/cloudwriter"
	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// OrderRow is the parquet layout of an exported order. CreatedAt is Unix
// milliseconds and absent for orders without a timestamp.
type OrderRow struct {
	ID           string  `parquet:"name=id,type=BYTE_ARRAY,convertedtype=UTF8"`
	CustomerName string  `parquet:"name=customerName,type=BYTE_ARRAY,convertedtype=UTF8"`
	Status       string  `parquet:"name=status,type=BYTE_ARRAY,convertedtype=UTF8"`
	Latitude     float64 `parquet:"name=latitude,type=DOUBLE"`
	Longitude    float64 `parquet:"name=longitude,type=DOUBLE"`
	Amount       float64 `parquet:"name=amount,type=DOUBLE"`
	CreatedAt    *int64  `parquet:"name=createdAt,type=INT64,convertedtype=TIMESTAMP_MILLIS,repetitiontype=OPTIONAL"`
}

func NewOrderRow(o models.Order) OrderRow {
	row := OrderRow{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		Status:       string(o.Status),
		Latitude:     o.Latitude,
		Longitude:    o.Longitude,
		Amount:       o.Amount,
	}
	if o.CreatedAt != nil {
		ms := o.CreatedAt.UnixMilli()
		row.CreatedAt = &ms
	}
	return row
}

// ExportOrdersParquet writes orders to fw and closes it.
func ExportOrdersParquet(orders []models.Order, fw source.ParquetFile) error {
	pw, err := writer.NewParquetWriter(fw, new(OrderRow), 4)
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, o := range orders {
		if err := pw.Write(NewOrderRow(o)); err != nil {
			_ = fw.Close()
			return fmt.Errorf("failed to write order %s: %w", o.ID, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return fw.Close()
}

// NewLocalParquetFile creates a parquet file on the local filesystem.
func NewLocalParquetFile(path string) (source.ParquetFile, error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create local file writer: %w", err)
	}
	return fw, nil
}

// CloudParquetFile adapts a CloudWriter to the write-only subset of
// source.ParquetFile used by the parquet writer.
type CloudParquetFile struct {
	cloudWriter cloudwriter.CloudWriter
	offset      int64
}

func NewCloudParquetFile(cloudWriter cloudwriter.CloudWriter) *CloudParquetFile {
	return &CloudParquetFile{cloudWriter: cloudWriter}
}

// Open and Create return the receiver; the object is created on Close.
func (c *CloudParquetFile) Open(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Create(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		c.offset = offset
	case io.SeekCurrent:
		c.offset += offset
	case io.SeekEnd:
		return 0, fmt.Errorf("seek from end not supported for cloud storage")
	}
	return c.offset, nil
}

func (c *CloudParquetFile) Read(p []byte) (n int, err error) {
	return 0, fmt.Errorf("read not supported for cloud storage")
}

func (c *CloudParquetFile) Write(p []byte) (n int, err error) {
	n, err = c.cloudWriter.Write(p)
	c.offset += int64(n)
	return n, err
}

func (c *CloudParquetFile) Close() error {
	return c.cloudWriter.Close()
}
