package sqlinline

const QInsertUsageLog = `--sql 4c9f1237-65a8-4f4f-b96c-f3a5b5ace689
insert into usage_logs(id, user_id, action, resolution, tokens_input, tokens_output, cost, country, created_at)
values ($1::uuid, $2::uuid, $3::text, $4::text, $5::int, $6::int, $7::numeric, nullif($8::text, ''), now());
`

const QSelectUsageLogsByUser = `--sql b58092bc-db94-46a2-9f38-ba264bc8e729
select id, user_id, action, resolution, tokens_input, tokens_output, cost, coalesce(country, ''), created_at
from usage_logs
where user_id = $1::uuid
order by created_at desc;
`

const QDeleteUsageLogsByUser = `--sql 4c664bee-9536-444b-912f-0f4298ae3dde
delete from usage_logs
where user_id = $1::uuid;
`
