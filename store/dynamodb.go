package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sicko7947/approvalflow"
)

const (
	conditionNotExists = "attribute_not_exists(PK)"
	conditionVersion   = "#v = :v"
)

// DynamoDBStore implements approvalflow.WorkflowStore using AWS DynamoDB
type DynamoDBStore struct {
	client    DynamoDBClient
	tableName string
}

// NewDynamoDBStore creates a new DynamoDB-backed workflow store
func NewDynamoDBStore(client DynamoDBClient, tableName string) *DynamoDBStore {
	return &DynamoDBStore{
		client:    client,
		tableName: tableName,
	}
}

var _ approvalflow.WorkflowStore = (*DynamoDBStore)(nil)

type stageRefItem struct {
	WorkflowID  string `dynamodbav:"workflow_id"`
	StageNumber int    `dynamodbav:"stage_number"`
}

// Workflow operations

func (s *DynamoDBStore) CreateWorkflow(ctx context.Context, wf *approvalflow.Workflow, stages []*approvalflow.Stage) error {
	if err := validateCreate(wf, stages); err != nil {
		return err
	}

	wfItem, err := s.workflowItem(wf, wf.Version)
	if err != nil {
		return err
	}

	items := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:           aws.String(s.tableName),
			Item:                wfItem,
			ConditionExpression: aws.String(conditionNotExists),
		},
	}}

	for _, st := range stages {
		stItem, err := s.stageItem(st, st.Version)
		if err != nil {
			return err
		}
		refItem, err := attributevalue.MarshalMap(stageRefItem{WorkflowID: st.WorkflowID, StageNumber: st.StageNumber})
		if err != nil {
			return fmt.Errorf("failed to marshal stage reference: %w", err)
		}
		refItem[AttrPK] = &types.AttributeValueMemberS{Value: stageRefPK(st.ID)}
		refItem[AttrSK] = &types.AttributeValueMemberS{Value: stageRefSK()}
		refItem[AttrEntityType] = &types.AttributeValueMemberS{Value: EntityTypeStageRef}

		items = append(items,
			types.TransactWriteItem{Put: &types.Put{
				TableName:           aws.String(s.tableName),
				Item:                stItem,
				ConditionExpression: aws.String(conditionNotExists),
			}},
			types.TransactWriteItem{Put: &types.Put{
				TableName:           aws.String(s.tableName),
				Item:                refItem,
				ConditionExpression: aws.String(conditionNotExists),
			}},
		)
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		if isConditionFailure(err) {
			return approvalflow.NewConflictError(fmt.Sprintf("workflow %s already exists", wf.ID)).
				WithWorkflow(wf.ID).
				WithCause(err)
		}
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	return nil
}

func (s *DynamoDBStore) GetWorkflow(ctx context.Context, workflowID string) (*approvalflow.Workflow, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: workflowPK(workflowID)},
			AttrSK: &types.AttributeValueMemberS{Value: workflowSK()},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	if result.Item == nil {
		return nil, workflowNotFound(workflowID)
	}

	var wf approvalflow.Workflow
	if err := attributevalue.UnmarshalMap(result.Item, &wf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow: %w", err)
	}

	return &wf, nil
}

func (s *DynamoDBStore) ListWorkflows(ctx context.Context, filter approvalflow.WorkflowFilter) ([]*approvalflow.Workflow, error) {
	var inputs []*dynamodb.QueryInput

	switch {
	case filter.DocumentID != "":
		inputs = append(inputs, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			IndexName:              aws.String(IndexDocumentIndex),
			KeyConditionExpression: aws.String("GSI1PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: workflowGSI1PK(filter.DocumentID)},
			},
		})
	case len(filter.Statuses) > 0:
		for _, status := range filter.Statuses {
			input := &dynamodb.QueryInput{
				TableName:              aws.String(s.tableName),
				IndexName:              aws.String(IndexStatusIndex),
				KeyConditionExpression: aws.String("GSI2PK = :pk"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":pk": &types.AttributeValueMemberS{Value: workflowGSI2PK(string(status))},
				},
			}
			if filter.DueBefore != nil {
				input.KeyConditionExpression = aws.String("GSI2PK = :pk AND GSI2SK < :due")
				input.ExpressionAttributeValues[":due"] = &types.AttributeValueMemberS{
					Value: workflowGSI2SK(*filter.DueBefore),
				}
			}
			inputs = append(inputs, input)
		}
	}

	var items []map[string]types.AttributeValue
	if len(inputs) == 0 {
		scanned, err := s.scanWorkflows(ctx)
		if err != nil {
			return nil, err
		}
		items = scanned
	}
	for _, input := range inputs {
		queried, err := s.queryAll(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list workflows: %w", err)
		}
		items = append(items, queried...)
	}

	var workflows []*approvalflow.Workflow
	for _, item := range items {
		var wf approvalflow.Workflow
		if err := attributevalue.UnmarshalMap(item, &wf); err != nil {
			return nil, fmt.Errorf("failed to unmarshal workflow: %w", err)
		}
		if filter.Matches(&wf) {
			workflows = append(workflows, &wf)
		}
	}

	sortWorkflows(workflows)
	return applyLimit(workflows, filter.Limit), nil
}

// Stage operations

func (s *DynamoDBStore) GetStage(ctx context.Context, stageID string) (*approvalflow.Stage, error) {
	refResult, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: stageRefPK(stageID)},
			AttrSK: &types.AttributeValueMemberS{Value: stageRefSK()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get stage reference: %w", err)
	}
	if refResult.Item == nil {
		return nil, stageNotFound(stageID)
	}

	var ref stageRefItem
	if err := attributevalue.UnmarshalMap(refResult.Item, &ref); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stage reference: %w", err)
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: stagePK(ref.WorkflowID)},
			AttrSK: &types.AttributeValueMemberS{Value: stageSK(ref.StageNumber)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get stage: %w", err)
	}
	if result.Item == nil {
		return nil, stageNotFound(stageID)
	}

	var st approvalflow.Stage
	if err := attributevalue.UnmarshalMap(result.Item, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stage: %w", err)
	}

	return &st, nil
}

func (s *DynamoDBStore) ListStages(ctx context.Context, workflowID string) ([]*approvalflow.Stage, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: stagePK(workflowID)},
			":sk": &types.AttributeValueMemberS{Value: stagePrefix()},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}

	if len(items) == 0 {
		// Distinguish an unknown workflow from an empty result
		if _, err := s.GetWorkflow(ctx, workflowID); err != nil {
			return nil, err
		}
	}

	stages := make([]*approvalflow.Stage, 0, len(items))
	for _, item := range items {
		var st approvalflow.Stage
		if err := attributevalue.UnmarshalMap(item, &st); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stage: %w", err)
		}
		stages = append(stages, &st)
	}

	sortStages(stages)
	return stages, nil
}

// Transitions

func (s *DynamoDBStore) ApplyTransition(ctx context.Context, tr approvalflow.Transition) error {
	var items []types.TransactWriteItem

	if tr.Workflow != nil {
		item, err := s.workflowItem(tr.Workflow, tr.Workflow.Version+1)
		if err != nil {
			return err
		}
		items = append(items, versionedPut(s.tableName, item, tr.Workflow.Version))
	}
	for _, st := range tr.Stages {
		item, err := s.stageItem(st, st.Version+1)
		if err != nil {
			return err
		}
		items = append(items, versionedPut(s.tableName, item, st.Version))
	}

	if len(items) == 0 {
		return nil
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		if isConditionFailure(err) {
			conflict := approvalflow.NewConflictError("transition rejected, a record changed since it was read").WithCause(err)
			if tr.Workflow != nil {
				conflict.WithWorkflow(tr.Workflow.ID)
			}
			return conflict
		}
		return fmt.Errorf("failed to apply transition: %w", err)
	}

	if tr.Workflow != nil {
		tr.Workflow.Version++
	}
	for _, st := range tr.Stages {
		st.Version++
	}
	return nil
}

// helpers

func (s *DynamoDBStore) workflowItem(wf *approvalflow.Workflow, version int64) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(wf)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workflow: %w", err)
	}

	item[AttrPK] = &types.AttributeValueMemberS{Value: workflowPK(wf.ID)}
	item[AttrSK] = &types.AttributeValueMemberS{Value: workflowSK()}
	item[AttrEntityType] = &types.AttributeValueMemberS{Value: EntityTypeWorkflow}
	item[AttrVersion] = &types.AttributeValueMemberN{Value: strconv.FormatInt(version, 10)}

	// GSI keys are rewritten on every put since status and due date move
	item[AttrGSI1PK] = &types.AttributeValueMemberS{Value: workflowGSI1PK(wf.DocumentID)}
	item[AttrGSI1SK] = &types.AttributeValueMemberS{Value: workflowGSI1SK(wf.CreatedAt)}
	item[AttrGSI2PK] = &types.AttributeValueMemberS{Value: workflowGSI2PK(string(wf.Status))}
	item[AttrGSI2SK] = &types.AttributeValueMemberS{Value: workflowGSI2SK(wf.DueDate)}

	return item, nil
}

func (s *DynamoDBStore) stageItem(st *approvalflow.Stage, version int64) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(st)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stage: %w", err)
	}

	item[AttrPK] = &types.AttributeValueMemberS{Value: stagePK(st.WorkflowID)}
	item[AttrSK] = &types.AttributeValueMemberS{Value: stageSK(st.StageNumber)}
	item[AttrEntityType] = &types.AttributeValueMemberS{Value: EntityTypeStage}
	item[AttrVersion] = &types.AttributeValueMemberN{Value: strconv.FormatInt(version, 10)}

	return item, nil
}

func versionedPut(tableName string, item map[string]types.AttributeValue, expected int64) types.TransactWriteItem {
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:                aws.String(tableName),
			Item:                     item,
			ConditionExpression:      aws.String(conditionVersion),
			ExpressionAttributeNames: map[string]string{"#v": AttrVersion},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(expected, 10)},
			},
		},
	}
}

func (s *DynamoDBStore) queryAll(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	var lastEvaluatedKey map[string]types.AttributeValue

	// Paginate through all results
	for {
		if lastEvaluatedKey != nil {
			input.ExclusiveStartKey = lastEvaluatedKey
		}

		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, result.Items...)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastEvaluatedKey = result.LastEvaluatedKey
	}

	return items, nil
}

func (s *DynamoDBStore) scanWorkflows(ctx context.Context) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:        aws.String(s.tableName),
			FilterExpression: aws.String("entity_type = :et"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":et": &types.AttributeValueMemberS{Value: EntityTypeWorkflow},
			},
		}
		if lastEvaluatedKey != nil {
			input.ExclusiveStartKey = lastEvaluatedKey
		}

		result, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflows: %w", err)
		}
		items = append(items, result.Items...)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastEvaluatedKey = result.LastEvaluatedKey
	}

	return items, nil
}

func isConditionFailure(err error) bool {
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for _, reason := range canceled.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return true
			}
		}
		return false
	}
	var condFailed *types.ConditionalCheckFailedException
	return errors.As(err, &condFailed)
}

