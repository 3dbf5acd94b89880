package registry

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/imposter-project/assetscheme/internal/config"
	"github.com/imposter-project/assetscheme/pkg/logger"
)

// DynamoDBProvider stores browser configs in a table keyed by the numeric
// attribute BrowserID, with the JSON config in the Config attribute.
type DynamoDBProvider struct {
	Region    string
	TableName string

	ddb *dynamodb.DynamoDB
}

func (p *DynamoDBProvider) InitRegistry() error {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(p.Region),
	})
	if err != nil {
		return err
	}
	p.ddb = dynamodb.New(sess)
	return nil
}

func browserKey(browserID int) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"BrowserID": {N: aws.String(strconv.Itoa(browserID))},
	}
}

func (p *DynamoDBProvider) Lookup(browserID int) (*config.BrowserConfig, bool) {
	result, err := p.ddb.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(p.TableName),
		Key:       browserKey(browserID),
	})
	if err != nil {
		logger.Errorf("failed to get browser %d: %v", browserID, err)
		return nil, false
	}
	if result.Item == nil || result.Item["Config"] == nil || result.Item["Config"].S == nil {
		return nil, false
	}
	var cfg config.BrowserConfig
	if err := json.Unmarshal([]byte(*result.Item["Config"].S), &cfg); err != nil {
		logger.Errorf("failed to unmarshal browser %d: %v", browserID, err)
		return nil, false
	}
	return &cfg, true
}

func (p *DynamoDBProvider) Register(cfg config.BrowserConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal browser config: %w", err)
	}
	item := browserKey(cfg.BrowserID)
	item["Config"] = &dynamodb.AttributeValue{S: aws.String(string(data))}
	_, err = p.ddb.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(p.TableName),
		Item:      item,
	})
	return err
}

func (p *DynamoDBProvider) Unregister(browserID int) error {
	_, err := p.ddb.DeleteItem(&dynamodb.DeleteItemInput{
		TableName: aws.String(p.TableName),
		Key:       browserKey(browserID),
	})
	return err
}

func (p *DynamoDBProvider) IDs() ([]int, error) {
	var ids []int
	err := p.ddb.ScanPages(&dynamodb.ScanInput{
		TableName:            aws.String(p.TableName),
		ProjectionExpression: aws.String("BrowserID"),
	}, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		for _, item := range page.Items {
			attr := item["BrowserID"]
			if attr == nil || attr.N == nil {
				continue
			}
			id, err := strconv.Atoi(*attr.N)
			if err != nil {
				logger.Warnf("ignoring malformed browser id %q in %s", *attr.N, p.TableName)
				continue
			}
			ids = append(ids, id)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return sortedIDs(ids), nil
}
