package sqlinline

const QInsertConversationMessage = `--sql a83b5d19-7c2e-4f60-91ab-3e6d8f0c4507
INSERT INTO conversation_messages (id, conversation_id, user_id, role, content, intent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

const QSelectConversationMessages = `--sql 64f1a0c8-3d97-4be2-8056-b9e2c7d1a608
SELECT id, conversation_id, user_id, role, content, intent, created_at
FROM conversation_messages
WHERE conversation_id = $1
ORDER BY created_at
`
